package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
	"ganttboard/internal/util"
	"ganttboard/pkg/metrics"
)

var (
	// ErrInvalidCredentials 用户不存在与密码错误返回同一个错误
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUnauthorized       = errors.New("Invalid or expired token")
	ErrLoginThrottled     = errors.New("Too many failed login attempts, please try again later")
	ErrWrongPassword      = errors.New("Current password is incorrect")
	ErrMissingPassword    = errors.New("Current password and new password are required")
)

type Service struct {
	users     repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	guard     *LoginGuard
	logger    *zap.Logger
}

func NewService(users repository.UserRepository, jwtSecret string, tokenTTL time.Duration, guard *LoginGuard, logger *zap.Logger) *Service {
	if guard == nil {
		guard = NewLoginGuard(nil, 0, logger)
	}
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		guard:     guard,
		logger:    logger,
	}
}

// Login checks user credentials and returns a signed token with the user profile.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.UserProfile, error) {
	if s.guard.Locked(ctx, username) {
		metrics.IncrementLoginAttempt("throttled")
		return "", nil, ErrLoginThrottled
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		s.guard.Fail(ctx, username)
		metrics.IncrementLoginAttempt("invalid")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		metrics.IncrementLoginAttempt("error")
		return "", nil, err
	}

	if !util.CheckPassword(password, u.Password) {
		s.guard.Fail(ctx, username)
		metrics.IncrementLoginAttempt("invalid")
		return "", nil, ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, u.Username, u.IsAdmin, s.jwtSecret, s.tokenTTL)
	if err != nil {
		metrics.IncrementLoginAttempt("error")
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.guard.Reset(ctx, username)
	metrics.IncrementLoginAttempt("success")

	profile := u.Profile()
	return token, &profile, nil
}

// Verify validates the token and returns its claims.
func (s *Service) Verify(token string) (*util.Claims, error) {
	claims, err := util.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// Me returns the stored profile of the token's user.
func (s *Service) Me(ctx context.Context, userID int) (*model.UserProfile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := u.Profile()
	return &profile, nil
}

// ChangePassword re-hashes the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingPassword
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !util.CheckPassword(current, u.Password) {
		return ErrWrongPassword
	}

	hash, err := util.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.logger.Info("Password changed", zap.Int("user_id", u.ID))
	return nil
}

// EnsureDefaultAdmin creates the admin account if the username is free.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	hash, err := util.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.users.CreateIfAbsent(ctx, &model.User{
		Username: username,
		Password: hash,
		IsAdmin:  true,
	})
	if err != nil {
		return err
	}

	if created {
		s.logger.Warn("Default admin user created, change its password",
			zap.String("username", username),
		)
	}
	return nil
}

// ResetAdminPassword sets the admin password, creating the admin if missing.
func (s *Service) ResetAdminPassword(ctx context.Context, username, password string) error {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return s.EnsureDefaultAdmin(ctx, username, password)
	}
	if err != nil {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.guard.Reset(ctx, username)
	s.logger.Info("Admin password reset", zap.String("username", username))
	return nil
}
