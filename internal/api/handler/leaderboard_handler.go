package handler

import (
	"net/http"
	"time"

	"codequest_admin/internal/app/service"
	"codequest_admin/internal/common"

	"github.com/go-chi/chi/v5"
)

type LeaderboardHandler struct {
	now func() time.Time
}

func NewLeaderboardHandler() *LeaderboardHandler {
	return &LeaderboardHandler{now: time.Now}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.leaderboard)
	r.Get("/export.csv", h.export(service.ExportCSV))
	r.Get("/export.xlsx", h.export(service.ExportXLSX))
	r.Get("/chart.png", h.export(service.ExportPNG))
	r.Post("/freeze", h.toggleFreeze)
}

func (h *LeaderboardHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	entries, err := gs.Leaderboard(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) export(format service.ExportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, ok := gameSession(w, r)
		if !ok {
			return
		}
		room, err := gs.CurrentRoom()
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		entries, err := gs.Leaderboard(r.Context())
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		export, err := service.ExportLeaderboard(room, entries, format, h.now())
		if err != nil {
			common.RespondWithErr(w, err)
			return
		}
		common.RespondWithFile(w, export.ContentType, export.FileName, export.Body)
	}
}

func (h *LeaderboardHandler) toggleFreeze(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	frozen, err := gs.ToggleLeaderboardFreeze(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"leaderboardFrozen": frozen})
}
