package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// visitor pairs a token bucket with its last-seen time so idle entries can
// be evicted.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-caller token bucket. Callers are keyed by
// authenticated user ID when present, falling back to client IP. It is a
// burst smoother in front of the quota service; monthly usage accounting
// lives in internal/quota and is not affected by this limiter.
//
// Idle buckets are evicted after 10 minutes by a background sweep.
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			for key, v := range visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(visitors, key)
				}
			}
			mu.Unlock()
		}
	}()

	allow := func(key string) bool {
		mu.Lock()
		defer mu.Unlock()
		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[key] = v
		}
		v.lastSeen = time.Now()
		return v.limiter.Allow()
	}

	return func(c *gin.Context) {
		key := asString(mustGet(c, "userID"))
		if key == "" {
			key = c.ClientIP()
		}
		if !allow(key) {
			rid, _ := c.Get(requestIDKey)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": asString(rid),
				"code":       "too_many_requests",
				"message":    "request rate limit exceeded, slow down",
			})
			return
		}
		c.Next()
	}
}

func mustGet(c *gin.Context, key string) interface{} {
	v, _ := c.Get(key)
	return v
}
