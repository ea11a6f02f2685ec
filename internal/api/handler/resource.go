package handler

import (
	"net/http"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/Rrens/teamhub/internal/service"
)

// ResourceHandler handles resource endpoints
type ResourceHandler struct {
	resourceService *service.ResourceService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resourceService *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

func resourceFilter(r *http.Request) (domain.ResourceFilter, error) {
	var filter domain.ResourceFilter
	team, err := queryUUID(r, "team_uuid")
	if err != nil {
		return filter, err
	}
	filter.TeamUUID = team

	if raw := r.URL.Query().Get("state"); raw != "" {
		state, err := lifecycle.ParseState(raw)
		if err != nil {
			return filter, apperr.FieldValidation("state", "Select a valid choice. "+raw+" is not one of the available choices.")
		}
		filter.State = &state
	}
	return filter, nil
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter, err := resourceFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	page, err := h.resourceService.List(r.Context(), p, filter, pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var input domain.ResourceCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	res, err := h.resourceService.Create(r.Context(), p, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, res)
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.resourceService.Get(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, res)
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input domain.ResourceUpdate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	res, err := h.resourceService.Update(r.Context(), p, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, res)
}

// Delete schedules deletion; the body mirrors the 202 status
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.resourceService.Delete(r.Context(), p, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Accepted(w, map[string]string{"detail": "Deletion was scheduled."})
}

func (h *ResourceHandler) Recover(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.resourceService.Recover(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, res)
}
