package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	r.logger.Debug("Listing projects")

	query := `
        SELECT id, name, description, start_date, end_date, created_at, updated_at
        FROM projects
        ORDER BY created_at DESC, id DESC
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.StartDate,
			&p.EndDate,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate projects", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Listed projects", zap.Int("count", len(projects)))
	return projects, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (*model.Project, error) {
	r.logger.Debug("Getting project", zap.Int("id", id))

	query := `
        SELECT id, name, description, start_date, end_date, created_at, updated_at
        FROM projects
        WHERE id = $1
    `

	var p model.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.StartDate,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) (int, error) {
	r.logger.Debug("Inserting project", zap.String("name", p.Name))

	query := `
        INSERT INTO projects (name, description, start_date, end_date)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.StartDate.Time,
		p.EndDate.Time,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return 0, fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Info("Project inserted successfully", zap.Int("id", id))
	return id, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Updating project", zap.Int("id", p.ID))

	query := `
        UPDATE projects
        SET name = $1, description = $2, start_date = $3, end_date = $4, updated_at = NOW()
        WHERE id = $5
    `
	tag, err := r.db.Exec(ctx, query,
		p.Name,
		p.Description,
		p.StartDate.Time,
		p.EndDate.Time,
		p.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Project updated successfully", zap.Int("id", p.ID))
	return nil
}

// Delete 在同一事务中删除项目及其全部任务
func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting project", zap.Int("id", id))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	removed, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project tasks", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit project delete", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Project deleted successfully",
		zap.Int("id", id),
		zap.Int64("tasks_removed", removed.RowsAffected()),
	)
	return nil
}
