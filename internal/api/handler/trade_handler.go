package handler

import (
	"net/http"

	"codequest_admin/internal/common"

	"github.com/go-chi/chi/v5"
)

type TradeHandler struct{}

func NewTradeHandler() *TradeHandler {
	return &TradeHandler{}
}

func (h *TradeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/room/trades", h.listTrades)
	r.Post("/room/trades/reload", h.reload)
	r.Post("/room/trades/{tradeID}/cancel", h.cancel)
	r.Post("/room/trading/toggle", h.toggleTrading)
}

func (h *TradeHandler) listTrades(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, gs.Snapshot().Trades)
}

func (h *TradeHandler) reload(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	trades, err := gs.LoadTrades(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, trades)
}

func (h *TradeHandler) cancel(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	trade, err := gs.CancelTrade(r.Context(), chi.URLParam(r, "tradeID"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, trade)
}

func (h *TradeHandler) toggleTrading(w http.ResponseWriter, r *http.Request) {
	gs, ok := gameSession(w, r)
	if !ok {
		return
	}
	enabled, err := gs.ToggleTrading(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"tradingEnabled": enabled})
}
