package handler

import (
	"context"

	"go.uber.org/zap"

	"ganttboard/internal/events"
	"ganttboard/internal/model"
	"ganttboard/internal/repository"
)

// ProjectDetail GET /api/projects/:id 的 data
type ProjectDetail struct {
	Project model.Project `json:"project"`
	Tasks   []model.Task  `json:"tasks"`
}

type ProjectHandler struct {
	*Resource[model.Project, model.CreateProjectInput, model.UpdateProjectInput]
}

func NewProjectHandler(projects repository.ProjectRepository, tasks repository.TaskRepository, publisher events.Publisher, resp Responder, logger *zap.Logger) *ProjectHandler {
	rules := Rules[model.Project, model.CreateProjectInput, model.UpdateProjectInput]{
		Entity:          "project",
		RequiredMessage: "Name, start date, and end date are required",
		FromCreate:      model.CreateProjectInput.Apply,
		FromUpdate:      model.UpdateProjectInput.Apply,
		Detail: func(ctx context.Context, p *model.Project) (any, error) {
			list, err := tasks.ListByProject(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			return ProjectDetail{Project: *p, Tasks: list}, nil
		},
	}
	return &ProjectHandler{
		Resource: NewResource(repository.Repository[model.Project](projects), rules, publisher, resp, logger),
	}
}
