package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter()
	rl.get("stale|1.2.3.4", rate.Every(time.Second), 5)
	rl.get("fresh|5.6.7.8", rate.Every(time.Second), 5)

	rl.mutex.Lock()
	rl.lastSeen["stale|1.2.3.4"] = time.Now().Add(-2 * time.Hour)
	rl.mutex.Unlock()

	rl.Cleanup()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	assert.NotContains(t, rl.limiters, "stale|1.2.3.4")
	assert.Contains(t, rl.limiters, "fresh|5.6.7.8")
}

func TestRateLimiterGetReusesBucket(t *testing.T) {
	rl := NewRateLimiter()
	a := rl.get("k|1.1.1.1", rate.Every(time.Second), 5)
	b := rl.get("k|1.1.1.1", rate.Every(time.Second), 5)
	assert.Same(t, a, b)
}
