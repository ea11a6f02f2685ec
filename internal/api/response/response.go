package response

import (
	"encoding/json"
	"net/http"

	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// Response represents a standard API response
type Response struct {
	Success bool             `json:"success"`
	Data    any              `json:"data,omitempty"`
	Detail  string           `json:"detail,omitempty"`
	Error   *apperr.AppError `json:"error,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(resp)
}

// Error sends an error response
func Error(w http.ResponseWriter, err *apperr.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)

	resp := Response{
		Success: false,
		Detail:  err.Message,
		Error:   err,
	}

	json.NewEncoder(w).Encode(resp)
}

// FromError renders err. Errors that are not AppErrors are logged and
// reported as a generic 500.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		Error(w, appErr)
		return
	}

	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("unhandled error")
	Error(w, apperr.Internal("A server error occurred."))
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with data
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Accepted sends a 202 Accepted response with data
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, data)
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, apperr.Validation(message))
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, apperr.Unauthorized(message))
}
