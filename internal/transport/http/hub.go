package http

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// writeWait bounds how long a broadcast may wait on one peer's socket.
const writeWait = 10 * time.Second

// Hub is the connection registry: it maps player IDs to live websocket
// connections and implements game.Notifier. Writes to one connection are
// serialized; gorilla connections do not support concurrent writers.
type Hub struct {
	log   zerolog.Logger
	mu    sync.RWMutex
	conns map[string]*client
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:   log.With().Str("component", "hub").Logger(),
		conns: make(map[string]*client),
	}
}

// Bind associates a player ID with its connection, replacing any previous one.
func (h *Hub) Bind(playerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[playerID] = &client{conn: conn}
}

// Unbind drops the mapping, but only if the player is still on this
// connection; a reconnect may already have replaced it.
func (h *Hub) Unbind(playerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[playerID]; ok && c.conn == conn {
		delete(h.conns, playerID)
	}
}

// Send marshals msg to the player's connection. Unknown players and write
// failures are dropped, and each write carries a deadline so a stalled peer
// cannot wedge the session broadcasting to it.
func (h *Hub) Send(playerID string, msg any) {
	h.mu.RLock()
	c, ok := h.conns[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	c.mu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(msg)
	c.mu.Unlock()
	if err != nil {
		h.log.Debug().Err(err).Str("player_id", playerID).Msg("ws write failed")
	}
}
