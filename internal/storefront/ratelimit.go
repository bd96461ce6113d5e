package storefront

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionLimiter keeps one token bucket per session. Buckets idle for
// longer than ttl are dropped on the next access.
type SessionLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionLimiter(limit rate.Limit, burst int, ttl time.Duration) *SessionLimiter {
	return &SessionLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// PerMinute converts a per-minute count into a rate.Limit. Zero or less
// means unlimited.
func PerMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

// Allow reports whether the session may proceed now
func (l *SessionLimiter) Allow(session string) bool {
	return l.get(session).AllowN(l.now(), 1)
}

func (l *SessionLimiter) get(session string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, id)
		}
	}

	v, ok := l.visitors[session]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[session] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Middleware rejects requests over the session's budget with 429
func (l *SessionLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(SessionID(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
