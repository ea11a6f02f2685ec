package handler

import (
	"net/http"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/service"
)

// APIKeyHandler handles API key endpoints
type APIKeyHandler struct {
	apiKeyService *service.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(apiKeyService *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{apiKeyService: apiKeyService}
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	owner, err := queryUUID(r, "owner_uuid")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	page, err := h.apiKeyService.List(r.Context(), p, domain.APIKeyFilter{TeamUUID: owner}, pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

// Create issues a key; the plaintext key is only ever in this response
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var input domain.APIKeyCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	key, err := h.apiKeyService.Create(r.Context(), p, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, key)
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	key, err := h.apiKeyService.Get(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, key)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	id, err := pathUUID(r, "uuid")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.apiKeyService.Delete(r.Context(), p, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w)
}
