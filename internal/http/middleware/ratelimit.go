// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the in-process token-bucket limiter that protects the
// admin API. Buckets are per identity (admin actor, else client IP) and idle
// buckets are evicted opportunistically.
//
// The public intake endpoint is not limited here: its fixed-window budget is
// enforced inside the intake service by a ratelimit.Counter.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByActorOrIP prefers the admin actor set by AdminAuth and falls back to
// the client IP. Keys are prefixed ("actor:", "ip:") so the namespaces never
// collide.
func KeyByActorOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if a := GetAdminActor(c); a != "" {
			return "actor:" + a
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu       sync.Mutex
	visitors map[string]*visitor

	ttl     time.Duration
	gcEvery uint64
	lookups uint64
	nowFn   func() time.Time
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByActorOrIP()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		gcEvery:  5000,
		nowFn:    time.Now,
	}
}

// Len reports how many buckets are currently held.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// limiterFor returns the bucket for key, creating it when absent. Idle
// buckets are swept every gcEvery lookups, before the requested bucket is
// touched so a stale one can be evicted too.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the Gin middleware. A rejected request gets 429 with a
// Retry-After header (whole seconds, at least 1) and the admin error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := rl.nowFn()
		lim := rl.limiterFor(rl.keyFn(c), now)

		r := lim.ReserveN(now, 1)
		if !r.OK() {
			rl.reject(c, time.Second)
			return
		}
		if d := r.DelayFrom(now); d > 0 {
			r.CancelAt(now)
			rl.reject(c, d)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"request_id": GetRequestID(c),
		"code":       "too_many_requests",
		"message":    "rate limit exceeded",
	})
}
