package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "kgexplorer/pkg/errors"
)

const clientIdleTimeout = 10 * time.Minute

// ClientRateLimiter keeps one token bucket per client address
type ClientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter allows each client perSecond requests with the given burst
func NewClientRateLimiter(perSecond float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make another request now
func (l *ClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok {
		l.evictIdleLocked(now)
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *ClientRateLimiter) evictIdleLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > clientIdleTimeout {
			delete(l.clients, key)
		}
	}
}

// RateLimit rejects requests over the per-client limit with 429 and a Retry-After hint. Clients are keyed
// by remote address, so it belongs after the real-IP middleware.
func RateLimit(limiter *ClientRateLimiter, errorHandler *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	retryAfter := 1
	if limiter.limit > 0 {
		retryAfter = int(math.Ceil(1 / float64(limiter.limit)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			errorHandler.Handle(w, r, apperrors.NewRateLimitError(limiter.burst, "burst").
				WithDetails(map[string]interface{}{"retryAfter": retryAfter}))
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
