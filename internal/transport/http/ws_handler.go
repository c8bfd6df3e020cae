package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/game"
	"quiz-game-service/internal/protocol"
)

// WSHandler upgrades client connections and routes protocol messages to the
// session engine. One goroutine per connection reads messages; all writes go
// through the Hub after the player has joined a game.
type WSHandler struct {
	service  *game.Service
	hub      *Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *game.Service, hub *Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		log:     log.With().Str("component", "ws").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS is the /ws endpoint.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	// Connection-scoped identity, set once join_game succeeds.
	var playerID, gameCode string

	defer func() {
		if playerID == "" {
			return
		}
		h.hub.Unbind(playerID, conn)
		h.service.Disconnect(gameCode, playerID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg protocol.Inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(conn, playerID, protocol.NewError(domain.ErrInvalidMessage.Error()))
			continue
		}

		switch msg.Type {
		case protocol.TypeJoinGame:
			if msg.GameCode == "" || msg.Player == nil || msg.Player.ID == "" || msg.Player.Name == "" {
				h.reply(conn, playerID, protocol.NewError(domain.ErrInvalidMessage.Error()))
				continue
			}
			// A connection hopping to another game or identity leaves its
			// current session first; otherwise the old roster keeps a ghost
			// that blocks all-answered detection and teardown.
			if playerID != "" && (msg.Player.ID != playerID || !strings.EqualFold(strings.TrimSpace(msg.GameCode), strings.TrimSpace(gameCode))) {
				h.hub.Unbind(playerID, conn)
				h.service.Disconnect(gameCode, playerID)
				playerID, gameCode = "", ""
			}
			// Bind before joining so the joined_game unicast and the roster
			// broadcast both reach this connection.
			h.hub.Bind(msg.Player.ID, conn)
			if _, err := h.service.Join(msg.GameCode, *msg.Player); err != nil {
				h.hub.Unbind(msg.Player.ID, conn)
				h.reply(conn, "", protocol.NewError(userMessage(err)))
				continue
			}
			playerID = msg.Player.ID
			gameCode = msg.GameCode

		case protocol.TypeStartGame:
			if playerID == "" {
				continue
			}
			if err := h.service.Start(gameCode, playerID); err != nil {
				h.reply(conn, playerID, protocol.NewError(userMessage(err)))
			}

		case protocol.TypeSubmitAnswer:
			if playerID == "" {
				continue
			}
			if msg.Answer == "" {
				h.reply(conn, playerID, protocol.NewError(domain.ErrInvalidMessage.Error()))
				continue
			}
			if err := h.service.SubmitAnswer(gameCode, playerID, msg.Answer); err != nil {
				h.reply(conn, playerID, protocol.NewError(userMessage(err)))
			}

		case protocol.TypeNextQuestion:
			if playerID == "" {
				continue
			}
			// Non-host advances are dropped silently.
			if err := h.service.NextQuestion(gameCode, playerID); err != nil && !errors.Is(err, domain.ErrNotAuthorized) {
				h.reply(conn, playerID, protocol.NewError(userMessage(err)))
			}

		default:
			h.reply(conn, playerID, protocol.NewError(domain.ErrInvalidMessage.Error()))
		}
	}
}

// reply unicasts an error to this connection only. Before a join succeeds the
// read loop is the sole writer, so writing directly to the conn is safe; after
// that all writes are serialized through the hub.
func (h *WSHandler) reply(conn *websocket.Conn, playerID string, msg any) {
	if playerID != "" {
		h.hub.Send(playerID, msg)
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug().Err(err).Msg("ws error reply failed")
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return "Game not found"
	case errors.Is(err, domain.ErrGameFull):
		return "Game is full"
	case errors.Is(err, domain.ErrNotAuthorized):
		return "Not authorized to start game"
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		return "Not enough players"
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		return "Game already started"
	default:
		return err.Error()
	}
}
