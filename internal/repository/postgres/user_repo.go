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

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

var _ repository.UserRepository = (*UserRepository)(nil)

// FindByUsername returns user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
        SELECT id, username, password, is_admin, created_at
        FROM users
        WHERE username = $1
    `
	return r.findOne(ctx, query, username)
}

// FindByID returns user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, username, password, is_admin, created_at
        FROM users
        WHERE id = $1
    `
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Password, &u.IsAdmin, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find user", zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// CreateIfAbsent inserts the user unless the username is taken.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *model.User) (bool, error) {
	query := `
        INSERT INTO users (username, password, is_admin)
        VALUES ($1, $2, $3)
        ON CONFLICT (username) DO NOTHING
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query, u.Username, u.Password, u.IsAdmin).Scan(&u.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to insert user", zap.String("username", u.Username), zap.Error(err))
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("User created", zap.Int("id", u.ID), zap.String("username", u.Username))
	return true, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		r.logger.Error("Failed to update password", zap.Int("id", id), zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	r.logger.Info("Password updated", zap.Int("id", id))
	return nil
}
