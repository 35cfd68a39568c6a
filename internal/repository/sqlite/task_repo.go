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

// TaskRepository implements repository.TaskRepository for SQLite
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewTaskRepository(db *DB, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

const taskColumns = `id, project_id, name, description, start_date, end_date, progress, dependencies, created_at, updated_at`

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	r.logger.Debug("Listing tasks")
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY project_id, start_date`)
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID int) ([]model.Task, error) {
	r.logger.Debug("Listing tasks for project", zap.Int("project_id", projectID))
	return r.query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY start_date`, projectID)
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
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
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	r.logger.Debug("Listed tasks", zap.Int("count", len(tasks)))
	return tasks, nil
}

func scanTask(row scanner) (model.Task, error) {
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

	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
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
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		t.ProjectID,
		t.Name,
		t.Description,
		t.StartDate,
		t.EndDate,
		t.Progress,
		t.Dependencies,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, repository.ErrForeignKey
		}
		r.logger.Error("Failed to insert task", zap.Error(err))
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read task id: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int64("id", id),
		zap.Int("project_id", t.ProjectID),
	)
	return int(id), nil
}

func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Updating task", zap.Int("id", t.ID))

	query := `
		UPDATE tasks
		SET name = ?, description = ?, start_date = ?, end_date = ?,
		    progress = ?, dependencies = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		t.Name,
		t.Description,
		t.StartDate,
		t.EndDate,
		t.Progress,
		t.Dependencies,
		t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.Int("id", t.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Task updated successfully", zap.Int("id", t.ID))
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting task", zap.Int("id", id))

	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Task deleted successfully", zap.Int("id", id))
	return nil
}
