package auth

import (
	"context"

	"go.uber.org/zap"

	"ganttboard/pkg/util"
)

// FailureCounter 由 util.RetryCounter 实现
type FailureCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// LoginGuard 按用户名统计登录失败次数，达到上限后在计数窗口内拒绝登录。
// counter 为 nil 时不做限制；Redis 故障时放行。
type LoginGuard struct {
	counter     FailureCounter
	maxFailures int64
	logger      *zap.Logger
}

func NewLoginGuard(counter FailureCounter, maxFailures int, logger *zap.Logger) *LoginGuard {
	return &LoginGuard{
		counter:     counter,
		maxFailures: int64(maxFailures),
		logger:      logger,
	}
}

func (g *LoginGuard) enabled() bool {
	return g.counter != nil && g.maxFailures > 0
}

// Locked reports whether the username has reached the failure limit.
func (g *LoginGuard) Locked(ctx context.Context, username string) bool {
	if !g.enabled() {
		return false
	}
	count, err := g.counter.Get(ctx, util.FormatLoginFailureKey(username))
	if err != nil {
		g.logger.Warn("Login failure counter unavailable, allowing login",
			zap.String("username", username),
			zap.Error(err),
		)
		return false
	}
	return count >= g.maxFailures
}

// Fail records one failed attempt.
func (g *LoginGuard) Fail(ctx context.Context, username string) {
	if !g.enabled() {
		return
	}
	count, err := g.counter.IncrementAndGet(ctx, util.FormatLoginFailureKey(username))
	if err != nil {
		g.logger.Warn("Failed to record login failure", zap.String("username", username), zap.Error(err))
		return
	}
	if count >= g.maxFailures {
		g.logger.Warn("Login locked after repeated failures",
			zap.String("username", username),
			zap.Int64("failures", count),
		)
	}
}

// Reset clears the failure count.
func (g *LoginGuard) Reset(ctx context.Context, username string) {
	if !g.enabled() {
		return
	}
	if err := g.counter.Reset(ctx, util.FormatLoginFailureKey(username)); err != nil {
		g.logger.Warn("Failed to reset login failures", zap.String("username", username), zap.Error(err))
	}
}
