package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/pkg/clientip"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
)

// WriteLimiter is a Redis fixed-window limit on form submissions,
// shared by every app instance. An IP that exceeds it is blocked for
// BlockFor. Redis failures let the request through.
type WriteLimiter struct {
	client   *redis.Client
	log      *logger.Logger
	Limit    int
	Window   time.Duration
	BlockFor time.Duration
}

func NewWriteLimiter(client *redis.Client, log *logger.Logger) *WriteLimiter {
	return &WriteLimiter{
		client:   client,
		log:      log,
		Limit:    30,
		Window:   2 * time.Minute,
		BlockFor: 15 * time.Minute,
	}
}

// Middleware counts POST requests per client IP. Other methods pass untouched.
func (l *WriteLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := clientip.RealClientIP(r)
		blockedKey := BlockedIPKeyPrefix + ip

		blocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && blocked > 0 {
			tooMany(w, l.BlockFor)
			return
		}

		rateLimitKey := RateLimitKeyPrefix + ip
		n, err := l.client.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			l.log.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if n == 1 {
			// First request in this window
			l.client.Expire(ctx, rateLimitKey, l.Window)
		}

		count := int(n)
		if count > l.Limit {
			if err := l.client.Set(ctx, blockedKey, "1", l.BlockFor).Err(); err != nil {
				l.log.Warn("failed to block ip", "error", err)
			}
			l.log.Warn("write rate limit exceeded", "ip", ip, "count", count)
			tooMany(w, l.BlockFor)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Limit-count))
		next.ServeHTTP(w, r)
	})
}

func tooMany(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	http.Error(w, "Too many submissions. Please try again later.", http.StatusTooManyRequests)
}
