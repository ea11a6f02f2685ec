package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// Limiter counts requests per key
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
}

// RateLimitMiddleware throttles requests per client address
type RateLimitMiddleware struct {
	limiter Limiter
	scope   string
}

// NewRateLimitMiddleware creates a middleware counting under scope
func NewRateLimitMiddleware(limiter Limiter, scope string) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, scope: scope}
}

// Limit applies rate limiting based on the client address
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		allowed, remaining, reset, err := m.limiter.Allow(r.Context(), m.scope+":"+host)
		if err != nil {
			// fail open
			log.Warn().Err(err).Str("scope", m.scope).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset.UTC().Format(time.RFC3339))

		if !allowed {
			response.Error(w, apperr.New("THROTTLED", "Request was throttled.", http.StatusTooManyRequests))
			return
		}

		next.ServeHTTP(w, r)
	})
}
