package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
)

// foreign_key_violation
const pgForeignKeyViolation = "23503"

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

const taskColumns = `id, project_id, name, description, start_date, end_date, progress, dependencies, created_at, updated_at`

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	r.logger.Debug("Listing tasks")
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY project_id, start_date`)
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for project", zap.Int("project_id", projectID))
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY start_date`, projectID)
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			r.logger.Error("Failed to scan task", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate tasks", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Listed tasks", zap.Int("count", len(tasks)))
	return tasks, nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Name,
		&t.Description,
		&t.StartDate,
		&t.EndDate,
		&t.Progress,
		&t.Dependencies,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *TaskRepository) Get(ctx context.Context, id int) (*model.Task, error) {
	r.logger.Debug("Getting task", zap.Int("id", id))

	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get task", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *model.Task) (int, error) {
	r.logger.Debug("Inserting task",
		zap.Int("project_id", t.ProjectID),
		zap.String("name", t.Name),
	)

	query := `
        INSERT INTO tasks (project_id, name, description, start_date, end_date, progress, dependencies)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		t.ProjectID,
		t.Name,
		t.Description,
		t.StartDate.Time,
		t.EndDate.Time,
		t.Progress,
		t.Dependencies,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return 0, repository.ErrForeignKey
		}
		r.logger.Error("Failed to insert task", zap.Error(err))
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int("id", id),
		zap.Int("project_id", t.ProjectID),
	)
	return id, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Updating task", zap.Int("id", t.ID))

	query := `
        UPDATE tasks
        SET name = $1, description = $2, start_date = $3, end_date = $4,
            progress = $5, dependencies = $6, updated_at = NOW()
        WHERE id = $7
    `
	tag, err := r.db.Exec(ctx, query,
		t.Name,
		t.Description,
		t.StartDate.Time,
		t.EndDate.Time,
		t.Progress,
		t.Dependencies,
		t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int("id", t.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Task updated successfully", zap.Int("id", t.ID))
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting task", zap.Int("id", id))

	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Task deleted successfully", zap.Int("id", id))
	return nil
}
