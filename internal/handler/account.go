package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

type registerRequest struct {
	UserID    int64           `json:"userId"`
	Available decimal.Decimal `json:"available"`
	Bonus     decimal.Decimal `json:"bonus"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil || req.UserID == 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	user, err := h.accounts.Register(r.Context(), req.UserID, req.Available, req.Bonus)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user id"})
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"available": user.AvailableBalance,
		"bonus":     user.BonusBalance,
		"total":     user.TotalBalance(),
	})
}

func (h *Handler) handleStatements(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user id"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.accounts.Statements(r.Context(), userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"statements": entries})
}
