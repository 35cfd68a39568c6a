package model

import "time"

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	StartDate   Date      `json:"start_date"`
	EndDate     Date      `json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProjectInput 创建项目的请求体
type CreateProjectInput struct {
	Name        *string `json:"name" binding:"required,min=1"`
	Description *string `json:"description"`
	StartDate   *Date   `json:"start_date" binding:"required"`
	EndDate     *Date   `json:"end_date" binding:"required"`
}

// UpdateProjectInput 更新项目的请求体，整体替换
type UpdateProjectInput CreateProjectInput

// Apply 生成待写入的项目（id 由调用方设置）
func (in CreateProjectInput) Apply() Project {
	return Project{
		Name:        *in.Name,
		Description: in.Description,
		StartDate:   *in.StartDate,
		EndDate:     *in.EndDate,
	}
}

// Apply 以请求体整体覆盖已有项目，description 缺省时清空
func (in UpdateProjectInput) Apply(existing Project) Project {
	p := CreateProjectInput(in).Apply()
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	return p
}
