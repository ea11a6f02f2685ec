package handler

import (
	"net/http"

	"github.com/Rrens/teamhub/internal/api/response"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/service"
)

// TeamHandler handles team endpoints
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func teamFilter(r *http.Request) domain.TeamFilter {
	return domain.TeamFilter{NameContains: r.URL.Query().Get("name")}
}

// List returns the caller's teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	page, err := h.teamService.List(r.Context(), p, teamFilter(r), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

// ListAll returns every team
func (h *TeamHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, err := h.teamService.ListAll(r.Context(), teamFilter(r), pageRequest(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var input domain.TeamCreate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), p, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, team)
}

func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	team, err := h.teamService.Get(r.Context(), p, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input domain.TeamUpdate
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	team, err := h.teamService.Update(r.Context(), p, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.teamService.Delete(r.Context(), p, id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w)
}

// AddUsers adds GENERAL members and returns the team
func (h *TeamHandler) AddUsers(w http.ResponseWriter, r *http.Request) {
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

	var input domain.TeamUsers
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	team, err := h.teamService.AddUsers(r.Context(), p, id, input)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, team)
}

func (h *TeamHandler) RemoveUsers(w http.ResponseWriter, r *http.Request) {
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

	var input domain.TeamUsers
	if err := decode(r, &input); err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.teamService.RemoveUsers(r.Context(), p, id, input); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{})
}
