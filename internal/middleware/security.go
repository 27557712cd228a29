package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"

	// htmx is loaded from unpkg; styles are inline in the layout.
	contentSecurityPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; frame-ancestors 'none'"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerReferrerPolicy, "same-origin")
		w.Header().Set(headerContentSecurityPolicy, contentSecurityPolicy)
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. thoughtify.example.com).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPLimiter hands out one token bucket per client IP. Idle buckets are
// dropped by a background sweep started on first use.
type IPLimiter struct {
	every   time.Duration
	burst   int
	ttl     time.Duration
	sweep   time.Duration
	message string

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	sweepOnce sync.Once
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// NewIPLimiter allows one event per every, bursting to burst.
func NewIPLimiter(every time.Duration, burst int, message string) *IPLimiter {
	return &IPLimiter{
		every:   every,
		burst:   burst,
		ttl:     30 * time.Minute,
		sweep:   5 * time.Minute,
		message: message,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *IPLimiter) get(ip string) *rate.Limiter {
	l.sweepOnce.Do(func() { go l.cleanup() })

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, e := range l.entries {
			if now.Sub(e.lastUse) > l.ttl {
				delete(l.entries, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Allow reports whether the client IP of r may proceed.
func (l *IPLimiter) Allow(r *http.Request) bool {
	return l.get(clientip.RealClientIP(r)).Allow()
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r) {
			http.Error(w, l.message, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Global limit: 5 req/s per IP, burst 20. Pages load htmx fragments, so
// this is looser than a JSON API would need.
var globalLimiter = NewIPLimiter(200*time.Millisecond, 20, "Too many requests. Please slow down.")

// Credential posts: 1 per 5s per IP, burst 3.
var authLimiter = NewIPLimiter(5*time.Second, 3, "Too many login attempts. Please try again later.")

var authPaths = map[string]bool{
	"/login":  true,
	"/signup": true,
}

// GlobalRateLimit applies the per-IP global limit.
func GlobalRateLimit(next http.Handler) http.Handler {
	return globalLimiter.Middleware(next)
}

// AuthRateLimit applies a stricter limit to credential submissions only. Use after GlobalRateLimit.
func AuthRateLimit(next http.Handler) http.Handler {
	limited := authLimiter.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !authPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → AuthRateLimit.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit,
		AuthRateLimit,
	}
}
