package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status including storage connectivity. ping
// may be nil when nothing needs checking.
func ReadyCheck(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				log.Warn().Err(err).Msg("readiness check failed")
				response.Error(w, apperr.New("NOT_READY", "storage not ready", http.StatusServiceUnavailable))
				return
			}
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
