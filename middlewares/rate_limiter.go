package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	ips   map[string]*visitor
	mu    sync.Mutex
	ttl   time.Duration

	// Idle visitors are dropped at most once per ttl.
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows burst requests per interval for each IP.
func NewRateLimiter(burst int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit: rate.Every(interval / time.Duration(burst)),
		burst: burst,
		ips:   make(map[string]*visitor),
		ttl:   10 * interval,
	}
}

// NewStrictRateLimiter is meant for login and register: 5 requests a minute.
func NewStrictRateLimiter() gin.HandlerFunc {
	return NewRateLimiter(5, time.Minute).RateLimit()
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl {
		rl.sweep(now)
	}

	v, ok := rl.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, v := range rl.ips {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.ips, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
