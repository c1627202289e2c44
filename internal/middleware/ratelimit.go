package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/jadwal-backend/internal/response"
)

// RateLimiter implements a token bucket per admin (or per IP before
// authentication). It guards the schedule write routes.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // Tokens per interval
	interval time.Duration // Refill interval
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 60 writes per minute).
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
	}

	// Cleanup stale visitors every minute.
	go func() {
		for range time.Tick(time.Minute) {
			rl.cleanup()
		}
	}()

	return rl
}

// Middleware returns a Gin middleware that rate-limits requests by caller.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := visitorKey(c)

		rl.mu.Lock()
		v, exists := rl.visitors[key]
		if !exists {
			v = &visitor{tokens: rl.rate, lastSeen: time.Now()}
			rl.visitors[key] = v
		}

		// Refill tokens based on elapsed time.
		now := time.Now()
		elapsed := now.Sub(v.lastSeen)
		refill := int(elapsed/rl.interval) * rl.rate
		if refill > 0 {
			v.tokens += refill
			if v.tokens > rl.rate {
				v.tokens = rl.rate
			}
			v.lastSeen = now
		}

		if v.tokens <= 0 {
			wait := rl.interval - now.Sub(v.lastSeen)
			rl.mu.Unlock()
			c.Header("Retry-After", strconv.Itoa(int(wait.Round(time.Second)/time.Second)+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		v.tokens--
		remaining := v.tokens
		rl.mu.Unlock()

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

// visitorKey buckets authenticated admins by user id so that several
// operators behind one school NAT do not share a budget.
func visitorKey(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return "admin:" + strconv.Itoa(claims.UserID)
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		// an idle bucket is full again, so forgetting it changes nothing
		if time.Since(v.lastSeen) > rl.interval {
			delete(rl.visitors, key)
		}
	}
}
