package model

import "time"

type Task struct {
	ID           int       `json:"id"`
	ProjectID    int       `json:"project_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	StartDate    Date      `json:"start_date"`
	EndDate      Date      `json:"end_date"`
	Progress     float64   `json:"progress"`
	Dependencies string    `json:"dependencies"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateTaskInput 创建任务的请求体
type CreateTaskInput struct {
	ProjectID    *int     `json:"project_id" binding:"required,min=1"`
	Name         *string  `json:"name" binding:"required,min=1"`
	Description  *string  `json:"description"`
	StartDate    *Date    `json:"start_date" binding:"required"`
	EndDate      *Date    `json:"end_date" binding:"required"`
	Progress     *float64 `json:"progress"`
	Dependencies *string  `json:"dependencies"`
}

// UpdateTaskInput 更新任务的请求体，project_id 不可修改
type UpdateTaskInput struct {
	Name         *string  `json:"name" binding:"required,min=1"`
	Description  *string  `json:"description"`
	StartDate    *Date    `json:"start_date" binding:"required"`
	EndDate      *Date    `json:"end_date" binding:"required"`
	Progress     *float64 `json:"progress"`
	Dependencies *string  `json:"dependencies"`
}

// Apply 生成待写入的任务，progress 默认 0，dependencies 默认空串
func (in CreateTaskInput) Apply() Task {
	t := Task{
		ProjectID:   *in.ProjectID,
		Name:        *in.Name,
		Description: in.Description,
		StartDate:   *in.StartDate,
		EndDate:     *in.EndDate,
	}
	if in.Progress != nil {
		t.Progress = *in.Progress
	}
	if in.Dependencies != nil {
		t.Dependencies = *in.Dependencies
	}
	return t
}

// Apply 覆盖已有任务；progress 与 dependencies 缺省时保留原值
func (in UpdateTaskInput) Apply(existing Task) Task {
	t := existing
	t.Name = *in.Name
	t.Description = in.Description
	t.StartDate = *in.StartDate
	t.EndDate = *in.EndDate
	if in.Progress != nil {
		t.Progress = *in.Progress
	}
	if in.Dependencies != nil {
		t.Dependencies = *in.Dependencies
	}
	return t
}
