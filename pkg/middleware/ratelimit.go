package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rps      rate.Limit
	burst    int
	idle     time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(config utils.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rps:      rate.Limit(config.RPS),
		burst:    config.Burst,
		idle:     10 * time.Minute,
	}
}

func (l *RateLimiter) Allow(ip string) bool {
	return l.getLimiter(ip, time.Now()).Allow()
}

func (l *RateLimiter) getLimiter(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Sweep forgets clients not seen for the idle window.
func (l *RateLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.limiters, ip)
		}
	}
}

func (l *RateLimiter) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !l.Allow(ip) {
				logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
				utils.ResponseTooManyRequests(w, "Rate limit exceeded. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
