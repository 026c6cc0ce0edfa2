package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"quickserve-server/utils"
)

// RateLimiter stores per-key token buckets. Keys combine route and
// client IP so a chatty poller cannot starve other endpoints.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mutex    sync.Mutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}
}

func (rl *RateLimiter) get(key string, limit rate.Limit, burst int) *rate.Limiter {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		rl.limiters[key] = limiter
	}
	rl.lastSeen[key] = time.Now()
	return limiter
}

// Cleanup drops buckets idle for more than an hour.
func (rl *RateLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, t := range rl.lastSeen {
		if now.Sub(t) > time.Hour {
			delete(rl.limiters, key)
			delete(rl.lastSeen, key)
		}
	}
}

// CleanupLoop sweeps idle buckets on every tick of interval. Run it
// in its own goroutine; without the sweep the per-key buckets grow
// without bound.
func (rl *RateLimiter) CleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		rl.Cleanup()
	}
}

// RateLimit limits requests per route+IP. Chat reads get a looser
// budget because clients poll for new messages.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + "|" + c.ClientIP()

		var lim rate.Limit
		var burst int
		switch {
		case c.Request.Method == http.MethodGet && strings.HasPrefix(c.FullPath(), "/api/chat"):
			lim = rate.Every(time.Second)
			burst = 5
		case strings.HasPrefix(c.FullPath(), "/api/auth"):
			lim = rate.Every(time.Minute / 5)
			burst = 5
		default:
			lim = rate.Every(time.Minute / 60)
			burst = 30
		}

		if !rl.get(key, lim, burst).Allow() {
			utils.Error(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}

// CORS is wide open: any origin may call the API, with standard
// preflight handling.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:          24 * time.Hour,
	})
}

// SecurityHeaders adds baseline hardening headers to every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
