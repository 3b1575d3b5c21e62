package services

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nicheimage/ingest/metrics"
)

// Bounds the limiter map so that address churn cannot exhaust memory.
const maxIPRateLimiters = 10000

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiterEntry
	rate     rate.Limit
	burst    int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows r requests per second per address with the given burst.
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		rate:     r,
		burst:    burst,
	}
}

// GetLimiter returns the limiter for ip, creating one if needed.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.limiters[ip]
	if exists {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	if len(i.limiters) >= maxIPRateLimiters {
		var oldestIP string
		var oldestTime time.Time
		for candidate, e := range i.limiters {
			if oldestIP == "" || e.lastSeen.Before(oldestTime) {
				oldestIP, oldestTime = candidate, e.lastSeen
			}
		}
		delete(i.limiters, oldestIP)
	}

	limiter := rate.NewLimiter(i.rate, i.burst)
	i.limiters[ip] = &rateLimiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// Cleanup drops limiters idle for longer than maxAge and reports how many went.
func (i *IPRateLimiter) Cleanup(maxAge time.Duration) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for ip, entry := range i.limiters {
		if now.Sub(entry.lastSeen) > maxAge {
			delete(i.limiters, ip)
			cleaned++
		}
	}
	return cleaned
}

// Len returns the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// RunCleanup sweeps idle limiters every interval until ctx is done.
func (i *IPRateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.Cleanup(interval)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (i *IPRateLimiter) Middleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !i.GetLimiter(clientIP(r)).Allow() {
				metrics.RateLimited.WithLabelValues(route).Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"detail": "Too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. Proxy headers are resolved
// upstream by middleware.RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
