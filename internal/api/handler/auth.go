package handler

import (
	"net/http"
	"strconv"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/Rrens/teamhub/internal/service"
	"github.com/go-chi/chi/v5"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.OK(w, result)
}

// UserHandler handles user endpoints
type UserHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *service.AuthService, userService *service.UserService) *UserHandler {
	return &UserHandler{authService: authService, userService: userService}
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.Created(w, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.userService.List(r.Context(), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.FromError(w, r, apperr.NotFound(""))
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, user)
}
