package handler

import (
	"net/http"

	"codequest_admin/internal/common"

	"github.com/go-chi/chi/v5"
)

type TeamHandler struct{}

func NewTeamHandler() *TeamHandler {
	return &TeamHandler{}
}

type banRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *TeamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTeams)
	r.Post("/reload", h.reload)
	r.Post("/{teamID}/ban", h.ban)
	r.Post("/{teamID}/unban", h.unban)
}

func (h *TeamHandler) listTeams(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot().Teams)
}

func (h *TeamHandler) reload(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	teams, err := gs.LoadParticipants(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) ban(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	var req banRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	team, err := gs.BanTeam(r.Context(), chi.URLParam(r, "teamID"), req.Reason)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) unban(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	team, err := gs.UnbanTeam(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, team)
}
