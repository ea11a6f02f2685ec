package handler

import (
	"net/http"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/service"
)

// InvitationHandler serves both /invitations and /join_requests
type InvitationHandler struct {
	invitationService *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func invitationFilter(r *http.Request) (domain.InvitationFilter, error) {
	var filter domain.InvitationFilter
	var err error
	if filter.TeamUUID, err = queryUUID(r, "team_uuid"); err != nil {
		return filter, err
	}
	if filter.IsAccepted, err = queryBool(r, "is_accepted"); err != nil {
		return filter, err
	}
	if filter.InvitedBy, err = queryInt64(r, "invited_by"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter, err := invitationFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	page, err := h.invitationService.List(r.Context(), p, filter, pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var input domain.InvitationCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	inv, err := h.invitationService.Create(r.Context(), p, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, inv)
}

func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	inv, err := h.invitationService.Get(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, inv)
}

// Accept turns the invitation into a membership
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
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

	inv, err := h.invitationService.Accept(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Accepted(w, inv)
}

// Delete serves both reject and DELETE
func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.invitationService.Delete(r.Context(), p, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *InvitationHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	filter, err := invitationFilter(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	page, err := h.invitationService.ListJoinRequests(r.Context(), p, filter, pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *InvitationHandler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var input domain.InvitationCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	inv, err := h.invitationService.CreateJoinRequest(r.Context(), p, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, inv)
}

func (h *InvitationHandler) GetJoinRequest(w http.ResponseWriter, r *http.Request) {
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

	inv, err := h.invitationService.GetJoinRequest(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, inv)
}

func (h *InvitationHandler) DeleteJoinRequest(w http.ResponseWriter, r *http.Request) {
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

	if err := h.invitationService.DeleteJoinRequest(r.Context(), p, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w)
}
