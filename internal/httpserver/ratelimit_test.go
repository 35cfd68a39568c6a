package httpserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterDropsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(10 * time.Minute)
	rl.getLimiter("10.0.0.2")

	// 10.0.0.1 已空闲超过 ttl，10.0.0.2 刚刚出现过
	now = now.Add(limiterIdleTTL - 5*time.Minute)
	rl.getLimiter("10.0.0.3")
	assert.Equal(t, 2, rl.size())

	rl.mu.Lock()
	_, stale := rl.limiters["10.0.0.1"]
	rl.mu.Unlock()
	assert.False(t, stale)
}

func TestRateLimiterKeepsBucketWhileActive(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	first := rl.getLimiter("10.0.0.1")
	assert.True(t, first.Allow())

	for i := 0; i < 4; i++ {
		now = now.Add(10 * time.Minute)
		assert.Same(t, first, rl.getLimiter("10.0.0.1"))
	}
	assert.False(t, first.Allow())
}
