// Package handler provides the HTTP JSON API over the betting facade.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/abhilipne0/agent-surath-backend/internal/broadcast"
	"github.com/abhilipne0/agent-surath-backend/internal/engine"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/repository"
	"github.com/abhilipne0/agent-surath-backend/internal/service"
	"github.com/abhilipne0/agent-surath-backend/internal/wallet"
)

// Handler bundles the API dependencies.
type Handler struct {
	manager  *engine.Manager
	bets     *service.BetService
	accounts *service.AccountService
	hub      *broadcast.Hub
	logger   zerolog.Logger
}

// New creates the API handler.
func New(manager *engine.Manager, bets *service.BetService, accounts *service.AccountService, hub *broadcast.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		manager:  manager,
		bets:     bets,
		accounts: accounts,
		hub:      hub,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers every endpoint on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("/ws", h.hub.HandleWS)

	mux.HandleFunc("POST /api/users", h.handleRegister)
	mux.HandleFunc("GET /api/users/{id}/balance", h.handleBalance)
	mux.HandleFunc("GET /api/users/{id}/statements", h.handleStatements)

	mux.HandleFunc("POST /api/games/{game}/bets", h.handlePlaceBet)
	mux.HandleFunc("GET /api/games/{game}/bets", h.handleOpenBets)
	mux.HandleFunc("GET /api/games/{game}/round", h.handleCurrentRound)
	mux.HandleFunc("GET /api/games/{game}/history", h.handleHistory)

	mux.HandleFunc("GET /api/games/{game}/mode", h.handleGetMode)
	mux.HandleFunc("PUT /api/games/{game}/mode", h.handleSetMode)
	mux.HandleFunc("POST /api/games/{game}/draw", h.handleForceDraw)
	mux.HandleFunc("POST /api/admin/games/{game}/rounds/{round}/settle", h.handleResettle)
	mux.HandleFunc("GET /api/admin/daily-net", h.handleDailyNet)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "games": h.manager.Games()})
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnknownGame),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrRoundNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidChoice),
		errors.Is(err, service.ErrAmountBelowMinimum),
		errors.Is(err, game.ErrInvalidMode),
		errors.Is(err, engine.ErrInvalidOutcome),
		errors.Is(err, wallet.ErrNonPositiveAmount):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrBettingClosed),
		errors.Is(err, engine.ErrManualModeRequired),
		errors.Is(err, engine.ErrRoundNotResolved),
		errors.Is(err, wallet.ErrInsufficientBalance):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}
	h.writeJSON(w, status, map[string]any{"error": err.Error()})
}

// decode parses a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
