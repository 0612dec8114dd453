package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

func (h *Handler) handleGetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.manager.Mode(r.Context(), r.PathValue("game"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"mode": mode})
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := decode(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	mode, err := h.manager.SetMode(r.Context(), r.PathValue("game"), req.Mode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"mode": mode})
}

type forceDrawRequest struct {
	Outcome string `json:"outcome"`
}

func (h *Handler) handleForceDraw(w http.ResponseWriter, r *http.Request) {
	var req forceDrawRequest
	if err := decode(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	if err := h.manager.ForceDraw(r.Context(), r.PathValue("game"), req.Outcome); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (h *Handler) handleResettle(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(r.PathValue("round"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid round id"})
		return
	}

	settled, err := h.manager.Resettle(r.Context(), r.PathValue("game"), roundID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"settled": settled})
}

func (h *Handler) handleDailyNet(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	net, err := h.accounts.DailyNet(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"date": date.Format("2006-01-02"), "net": net})
}
