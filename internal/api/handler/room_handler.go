package handler

import (
	"context"
	"net/http"

	"codequest_admin/internal/app/service"
	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// RoomHandler serves the dashboard, the room list and the game controls of
// the selected room.
type RoomHandler struct{}

func NewRoomHandler() *RoomHandler {
	return &RoomHandler{}
}

type dashboardResponse struct {
	Stats model.AdminStats `json:"stats"`
	Rooms []model.Room     `json:"rooms"`
}

type unlockRequest struct {
	TeamID     string `json:"teamId" validate:"required"`
	QuestionID string `json:"questionId" validate:"required"`
}

func (h *RoomHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.listRooms)
		r.Post("/", h.createRoom)
		r.Post("/refresh", h.refresh)
		r.Delete("/{roomID}", h.deleteRoom)
		r.Post("/{roomID}/select", h.selectRoom)
	})

	r.Get("/room", h.currentRoom)
	r.Post("/room/start", h.control((*service.GameSession).StartGame))
	r.Post("/room/pause", h.control((*service.GameSession).PauseGame))
	r.Post("/room/resume", h.control((*service.GameSession).ResumeGame))
	r.Post("/room/end", h.control((*service.GameSession).EndGame))
	r.Post("/room/reset", h.control((*service.GameSession).ResetRoom))
	r.Post("/room/unlock", h.forceUnlock)
}

func (h *RoomHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	snap := gs.Snapshot()
	common.RespondWithJSON(w, http.StatusOK, dashboardResponse{Stats: snap.Stats, Rooms: snap.Rooms})
}

func (h *RoomHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.ListRooms())
}

func (h *RoomHandler) createRoom(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	var cfg model.RoomConfig
	if !decodeRequest(w, r, &cfg) {
		return
	}
	room, err := gs.CreateRoom(r.Context(), cfg)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, room)
}

func (h *RoomHandler) refresh(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	if err := gs.Refresh(r.Context()); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot())
}

func (h *RoomHandler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	if err := gs.DeleteRoom(r.Context(), chi.URLParam(r, "roomID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomHandler) selectRoom(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	if err := gs.SelectRoom(r.Context(), chi.URLParam(r, "roomID")); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot())
}

func (h *RoomHandler) currentRoom(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot())
}

// control runs one room transition and answers with the new snapshot.
func (h *RoomHandler) control(op func(*service.GameSession, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gs, ok := gameSession(w, r)
		if !ok {
			return
		}
		if err := op(gs, r.Context()); err != nil {
			common.RespondWithErr(w, err)
			return
		}
		common.RespondWithJSON(w, http.StatusOK, gs.Snapshot())
	}
}

func (h *RoomHandler) forceUnlock(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	var req unlockRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	unlock, err := gs.ForceUnlockQuestion(r.Context(), req.QuestionID, req.TeamID)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, unlock)
}
