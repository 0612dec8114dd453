package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

type placeBetRequest struct {
	UserID int64           `json:"userId"`
	Choice string          `json:"choice"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := decode(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	receipt, err := h.bets.PlaceBet(r.Context(), r.PathValue("game"), req.UserID, req.Choice, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"roundId":   receipt.RoundID,
		"bets":      receipt.Wagers,
		"available": receipt.Available,
		"bonus":     receipt.Bonus,
	})
}

func (h *Handler) handleOpenBets(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid userId"})
		return
	}

	bets, err := h.bets.OpenBets(r.Context(), r.PathValue("game"), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"bets": bets})
}

func (h *Handler) handleCurrentRound(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game")
	round, err := h.manager.CurrentRound(gameID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	open, _ := h.manager.IsRoundOpen(gameID)
	h.writeJSON(w, http.StatusOK, map[string]any{"round": round, "open": open})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 8
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rounds, err := h.manager.History(r.Context(), r.PathValue("game"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds})
}
