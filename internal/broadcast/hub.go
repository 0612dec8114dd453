// Package broadcast fans round lifecycle events out to connected clients
// over websockets. Delivery is best-effort and non-blocking: a slow client
// drops messages rather than stalling the round driver.
package broadcast

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event names carried on the channel.
const (
	EventRoundStarted   = "round-started"
	EventRoundEnded     = "round-ended"
	EventPersonalResult = "personal-result"
	EventModeChanged    = "mode-changed"
	EventSnapshot       = "snapshot"
)

// Envelope is the wire frame for every event.
type Envelope struct {
	Game  string `json:"game"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SnapshotFunc supplies the payload sent to a subscriber joining a game
// feed mid-round: the current open round, or the most recently archived one.
type SnapshotFunc func(gameID string) (any, bool)

// message is an event routed through the hub loop.
type message struct {
	game   string
	event  string
	data   any
	userID *int64 // nil broadcasts to every subscriber of the game
}

// Hub owns the client set and the fan-out loop.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	messages   chan message
	snapshot   SnapshotFunc
	logger     zerolog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewHub creates a broadcast hub. The snapshot function may be nil, in
// which case joining subscribers receive no catch-up payload.
func NewHub(logger zerolog.Logger, snapshot SnapshotFunc) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan message, 256),
		snapshot:   snapshot,
		logger:     logger.With().Str("component", "broadcast").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs the hub loop.
func (h *Hub) Start() {
	go h.run()
}

// Stop closes every connection and stops the loop.
func (h *Hub) Stop() {
	h.cancel()
}

// Emit broadcasts an event to every subscriber of a game.
func (h *Hub) Emit(gameID, event string, data any) {
	h.enqueue(message{game: gameID, event: event, data: data})
}

// EmitTo sends an event to the subscribers of a game identified by the
// given bettor id.
func (h *Hub) EmitTo(gameID string, userID int64, event string, data any) {
	h.enqueue(message{game: gameID, event: event, data: data, userID: &userID})
}

// enqueue hands a message to the loop without ever blocking the caller.
func (h *Hub) enqueue(m message) {
	select {
	case h.messages <- m:
	default:
		h.logger.Warn().Str("game", m.game).Str("event", m.event).Msg("Broadcast queue full, dropping event")
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info().Int("total", len(h.clients)).Msg("Client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info().Int("total", len(h.clients)).Msg("Client disconnected")

		case m := <-h.messages:
			h.deliver(m)

		case <-h.ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]bool)
			return
		}
	}
}

func (h *Hub) deliver(m message) {
	payload, err := json.Marshal(Envelope{Game: m.game, Event: m.event, Data: m.data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", m.event).Msg("Failed to marshal event")
		return
	}

	for c := range h.clients {
		if !c.subscribed(m.game) {
			continue
		}
		if m.userID != nil && c.user() != *m.userID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer; drop rather than block the loop.
		}
	}
}

// HandleWS upgrades an HTTP request and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	c := newClient(h, conn)
	h.register <- c
	go c.writePump()
	go c.readPump()
}
