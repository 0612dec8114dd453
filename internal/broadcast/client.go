package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// joinRequest is the only inbound message: subscribe to a game feed,
// identifying the bettor for addressed events.
type joinRequest struct {
	Action string `json:"action"`
	Game   string `json:"game"`
	UserID int64  `json:"userId"`
}

// Client is one websocket subscriber. A client may follow several games;
// the bettor id is set by the first join and used for personal results.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	userID int64
	games  map[string]bool
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 64),
		games: make(map[string]bool),
	}
}

func (c *Client) subscribed(gameID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.games[gameID]
}

func (c *Client) user() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// readPump consumes join requests until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req joinRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Action != "join" || req.Game == "" {
			continue
		}

		c.mu.Lock()
		c.games[req.Game] = true
		if req.UserID != 0 {
			c.userID = req.UserID
		}
		c.mu.Unlock()

		// Late joiners get the current or last round immediately.
		if c.hub.snapshot != nil {
			if data, ok := c.hub.snapshot(req.Game); ok {
				if payload, err := json.Marshal(Envelope{Game: req.Game, Event: EventSnapshot, Data: data}); err == nil {
					select {
					case c.send <- payload:
					default:
					}
				}
			}
		}
	}
}

// writePump flushes outbound events and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
