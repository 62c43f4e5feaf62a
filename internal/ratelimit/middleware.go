package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-commission/internal/common"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter counts an event for key and reports whether it fits the quota.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config describes how to derive a rate limit key.
type Config struct {
	Key func(*http.Request) string
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
	Now     func() time.Time
}

// ClientIPKey buckets requests by client address.
func ClientIPKey(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface. Limiter
// failures are reported through OnError and the request proceeds.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Allow(r.Context(), h.Config.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(decision.ResetAt.Sub(h.now()).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
