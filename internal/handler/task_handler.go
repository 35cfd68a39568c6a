package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ganttboard/internal/events"
	"ganttboard/internal/model"
	"ganttboard/internal/repository"
	"ganttboard/pkg/logger"
)

type TaskHandler struct {
	*Resource[model.Task, model.CreateTaskInput, model.UpdateTaskInput]
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	resp     Responder
	logger   *zap.Logger
}

func NewTaskHandler(tasks repository.TaskRepository, projects repository.ProjectRepository, publisher events.Publisher, resp Responder, logger *zap.Logger) *TaskHandler {
	rules := Rules[model.Task, model.CreateTaskInput, model.UpdateTaskInput]{
		Entity:                "task",
		RequiredMessage:       "Project ID, name, start date, and end date are required",
		UpdateRequiredMessage: "Name, start date, and end date are required",
		ParentMissingMessage:  "Project not found",
		FromCreate:            model.CreateTaskInput.Apply,
		FromUpdate:            model.UpdateTaskInput.Apply,
		ProjectID:             func(t *model.Task) int { return t.ProjectID },
		BeforeCreate: func(ctx context.Context, t *model.Task) error {
			_, err := projects.Get(ctx, t.ProjectID)
			return err
		},
	}
	return &TaskHandler{
		Resource: NewResource(repository.Repository[model.Task](tasks), rules, publisher, resp, logger),
		projects: projects,
		tasks:    tasks,
		resp:     resp,
		logger:   logger,
	}
}

// ListByProject GET /api/tasks/project/:projectId
func (h *TaskHandler) ListByProject(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	projectID, ok := parseID(c, "projectId")
	if !ok {
		log.Warn("ListByProject: invalid project id", zap.String("project_id", c.Param("projectId")))
		h.resp.Fail(c, http.StatusNotFound, "Project not found")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("ListByProject: project not found", zap.Int("project_id", projectID))
			h.resp.Fail(c, http.StatusNotFound, "Project not found")
			return
		}
		log.Error("ListByProject: failed to fetch project", zap.Int("project_id", projectID), zap.Error(err))
		h.resp.ServerError(c, "Failed to fetch tasks", err)
		return
	}

	tasks, err := h.tasks.ListByProject(ctx, projectID)
	if err != nil {
		log.Error("ListByProject: failed to fetch tasks", zap.Int("project_id", projectID), zap.Error(err))
		h.resp.ServerError(c, "Failed to fetch tasks", err)
		return
	}

	log.Debug("ListByProject: success",
		zap.Int("project_id", projectID),
		zap.Int("task_count", len(tasks)),
	)
	h.resp.OK(c, tasks)
}
