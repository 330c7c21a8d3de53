package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
)

// Limiter is a fixed-window request counter backed by Redis
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Rule is a limit applied to one purpose
type Rule struct {
	Purpose string
	Limit   int
	Window  time.Duration
}

func rateLimitKey(purpose, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", purpose, subject)
}

// Allow counts one request for subject under rule and reports whether it is
// within the limit. The window starts with the first request.
func (l *Limiter) Allow(ctx context.Context, rule Rule, subject string) (allowed bool, retryAfter time.Duration, err error) {
	key := rateLimitKey(rule.Purpose, subject)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rule.Window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to record request: %w", err)
	}

	if incr.Val() > int64(rule.Limit) {
		retry := ttl.Val()
		if retry < 0 {
			retry = rule.Window
		}
		return false, retry, nil
	}

	return true, 0, nil
}

// KeyFunc derives the rate limit subject from a request
type KeyFunc func(r *http.Request) string

// ByIP limits by client IP
func ByIP(r *http.Request) string {
	return ClientIP(r)
}

// Middleware enforces rule per subject. Redis failures let the request
// through.
func (l *Limiter) Middleware(rule Rule, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())
			subject := keyFn(r)

			allowed, retryAfter, err := l.Allow(r.Context(), rule, subject)
			if err != nil {
				logger.Error("failed to check rate limit", "purpose", rule.Purpose, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				logger.Warn("rate limit exceeded", "purpose", rule.Purpose, "subject", subject)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote host without the port.
// chi's RealIP middleware is expected to have applied proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
