package repository

import (
	"context"

	"ganttboard/internal/model"
)

// Repository 是项目与任务共用的 CRUD 接口
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int) (*T, error)
	// Create 插入新行并返回生成的 id
	Create(ctx context.Context, entity *T) (int, error)
	// Update 按 entity 的 id 整体覆盖，行不存在时返回 ErrNotFound
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int) error
}

type ProjectRepository interface {
	Repository[model.Project]
}

type TaskRepository interface {
	Repository[model.Task]
	ListByProject(ctx context.Context, projectID int) ([]model.Task, error)
}

type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	// CreateIfAbsent 用户名已存在时不做任何修改，返回 false
	CreateIfAbsent(ctx context.Context, u *model.User) (bool, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
}
