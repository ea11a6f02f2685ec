package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/api/response"
)

type contextKey string

const principalKey contextKey = "principal"

const msgNoCredentials = "Authentication credentials were not provided."

// Authenticator resolves presented credentials to a principal
type Authenticator interface {
	AuthenticateToken(ctx context.Context, key string) (*access.Principal, error)
	AuthenticateAPIKey(ctx context.Context, key string) (*access.Principal, error)
}

// AuthMiddleware accepts "Token <key>" and "Api-Key <prefix>.<secret>"
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate rejects requests without valid credentials
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, credentials, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		credentials = strings.TrimSpace(credentials)
		if !ok || credentials == "" {
			response.Unauthorized(w, msgNoCredentials)
			return
		}

		var (
			principal *access.Principal
			err       error
		)
		switch strings.ToLower(scheme) {
		case "token":
			principal, err = m.auth.AuthenticateToken(r.Context(), credentials)
		case "api-key":
			principal, err = m.auth.AuthenticateAPIKey(r.Context(), credentials)
		default:
			response.Unauthorized(w, msgNoCredentials)
			return
		}
		if err != nil {
			response.FromError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, *principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipal gets the authenticated principal from context
func GetPrincipal(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(principalKey).(access.Principal)
	return p, ok
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
