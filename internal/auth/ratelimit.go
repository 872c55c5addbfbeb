package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter limits login attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	every    time.Duration
	burst    int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows burst attempts at once, refilled one every interval.
func NewLoginLimiter(every time.Duration, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*visitor),
		every:    every,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether ip may make another attempt now.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup forgets clients not seen for longer than maxIdle.
func (l *LoginLimiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-maxIdle)
	for ip, v := range l.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// Middleware answers 429 once a client has used up its attempts.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
