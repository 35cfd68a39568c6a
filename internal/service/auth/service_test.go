package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ganttboard/internal/repository"
	"ganttboard/internal/repository/mocks"
	"ganttboard/internal/repository/sqlite"
	"ganttboard/internal/util"
)

const secret = "test-secret"

// memCounter 内存版 FailureCounter
type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}}
}

func (c *memCounter) IncrementAndGet(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memCounter) Get(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.counts[key], nil
}

func (c *memCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key)
	return c.err
}

func newTestService(t *testing.T, guard *LoginGuard) *Service {
	t.Helper()
	users := sqlite.NewUserRepository(sqlite.NewTestDB(t), zap.NewNop())
	svc := NewService(users, secret, time.Hour, guard, zap.NewNop())
	require.NoError(t, svc.EnsureDefaultAdmin(context.Background(), "admin", "admin123"))
	return svc
}

func TestDefaultAdminLogin(t *testing.T) {
	svc := newTestService(t, nil)

	token, profile, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.True(t, profile.IsAdmin)
	assert.Equal(t, "admin", profile.Username)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestEnsureDefaultAdminIsIdempotent(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "different"))

	_, _, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "admin", "different")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, _, wrongPassword := svc.Login(ctx, "admin", "nope")
	_, _, unknownUser := svc.Login(ctx, "ghost", "admin123")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	svc := newTestService(t, nil)

	token, err := util.GenerateJWT(1, "admin", true, "other-secret", time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, profile, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, profile.ID, "", "x"), ErrMissingPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, profile.ID, "wrong", "x"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, 999, "admin123", "x"), repository.ErrNotFound)

	require.NoError(t, svc.ChangePassword(ctx, profile.ID, "admin123", "s3cret"))
	_, _, err = svc.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetAdminPassword(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.ResetAdminPassword(ctx, "admin", "rotated"))
	_, _, err := svc.Login(ctx, "admin", "rotated")
	require.NoError(t, err)

	// 管理员不存在时会创建
	require.NoError(t, svc.ResetAdminPassword(ctx, "root", "rootpw"))
	_, profile, err := svc.Login(ctx, "root", "rootpw")
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)
}

func TestMe(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, profile, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	me, err := svc.Me(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, *profile, *me)

	_, err = svc.Me(ctx, 12345)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginGuardLocksAfterFailures(t *testing.T) {
	counter := newMemCounter()
	svc := newTestService(t, NewLoginGuard(counter, 3, zap.NewNop()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login(ctx, "admin", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, _, err := svc.Login(ctx, "admin", "admin123")
	assert.ErrorIs(t, err, ErrLoginThrottled)

	// 窗口过期后恢复
	require.NoError(t, counter.Reset(ctx, "login:fail:admin"))
	_, _, err = svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	counter := newMemCounter()
	svc := newTestService(t, NewLoginGuard(counter, 3, zap.NewNop()))
	ctx := context.Background()

	_, _, _ = svc.Login(ctx, "admin", "wrong")
	_, _, _ = svc.Login(ctx, "admin", "wrong")
	_, _, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	count, err := counter.Get(ctx, "login:fail:admin")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoginGuardFailsOpen(t *testing.T) {
	counter := newMemCounter()
	counter.err = errors.New("redis down")
	svc := newTestService(t, NewLoginGuard(counter, 1, zap.NewNop()))

	_, _, err := svc.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
}

func TestLoginRepositoryError(t *testing.T) {
	users := new(mocks.UserRepository)
	users.On("FindByUsername", mock.Anything, "admin").Return(nil, errors.New("connection refused"))

	svc := NewService(users, secret, time.Hour, nil, zap.NewNop())
	_, _, err := svc.Login(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	users.AssertExpectations(t)
}
