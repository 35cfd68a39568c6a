package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewProjectRepository(db *DB, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	r.logger.Debug("Listing projects")

	query := `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			r.logger.Error("Failed to scan project", zap.Error(err))
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	r.logger.Debug("Listed projects", zap.Int("count", len(projects)))
	return projects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.StartDate,
		&p.EndDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (*model.Project, error) {
	r.logger.Debug("Getting project", zap.Int("id", id))

	query := `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
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
		VALUES (?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.StartDate, p.EndDate)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return 0, fmt.Errorf("failed to create project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read project id: %w", err)
	}

	r.logger.Info("Project inserted successfully", zap.Int64("id", id))
	return int(id), nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	r.logger.Debug("Updating project", zap.Int("id", p.ID))

	query := `
		UPDATE projects
		SET name = ?, description = ?, start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.StartDate, p.EndDate, p.ID)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Project updated successfully", zap.Int("id", p.ID))
	return nil
}

// Delete 在同一事务中删除项目及其全部任务
func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting project", zap.Int("id", id))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	removed, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete project tasks", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	taskCount, _ := removed.RowsAffected()
	r.logger.Info("Project deleted successfully",
		zap.Int("id", id),
		zap.Int64("tasks_removed", taskCount),
	)
	return nil
}
