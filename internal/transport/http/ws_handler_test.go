package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/game"
	"quiz-game-service/internal/infra/memory"
	"quiz-game-service/internal/protocol"
)

type wsFixture struct {
	service  *game.Service
	registry *memory.SessionRegistry
	server   *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:         "quiz-1",
			Title:      "Capitals of Europe",
			TimeLimit:  30,
			MinPlayers: 1,
			MaxPlayers: 4,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is the capital of France?",
					Answers: []domain.Answer{
						{ID: "a1", Text: "Paris", Correct: true},
						{ID: "a2", Text: "Lyon"},
					},
				},
			},
		},
	})
	registry := memory.NewSessionRegistry()
	quizzes := memory.NewQuizRepository(loader, time.Minute)
	log := zerolog.Nop()
	hub := NewHub(log)
	cfg := game.Config{GraceDelay: 50 * time.Millisecond}
	service := game.NewService(registry, quizzes, memory.NewGameStore(), hub, clockwork.NewRealClock(), cfg, log)

	mux := http.NewServeMux()
	handler := NewWSHandler(service, hub, log)
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &wsFixture{service: service, registry: registry, server: server}
}

func (f *wsFixture) createGame(t *testing.T) string {
	t.Helper()
	session, err := f.service.CreateGame(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return session.Code()
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg protocol.Inbound) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

// expectType reads until a message of the wanted type arrives, skipping
// countdown ticks so tests do not race the real clock.
func expectType(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m map[string]any
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		got, _ := m["type"].(string)
		if got == want {
			return m
		}
		if got == protocol.TypeTimerUpdate {
			continue
		}
		t.Fatalf("got %s, want %s: %v", got, want, m)
	}
}

func joinGame(t *testing.T, conn *websocket.Conn, code, id, name string) {
	t.Helper()
	send(t, conn, protocol.Inbound{
		Type:     protocol.TypeJoinGame,
		GameCode: code,
		Player:   &protocol.PlayerInfo{ID: id, Name: name},
	})
	joined := expectType(t, conn, protocol.TypeJoinedGame)
	if joined["gameCode"] != code {
		t.Fatalf("joined_game code = %v, want %s", joined["gameCode"], code)
	}
	expectType(t, conn, protocol.TypePlayerJoined)
}

func TestJoinGameFlow(t *testing.T) {
	f := newWSFixture(t)
	code := f.createGame(t)

	host := f.dial(t)
	joinGame(t, host, code, "p1", "Ada")

	guest := f.dial(t)
	send(t, guest, protocol.Inbound{
		Type:     protocol.TypeJoinGame,
		GameCode: code,
		Player:   &protocol.PlayerInfo{ID: "p2", Name: "Grace"},
	})
	expectType(t, guest, protocol.TypeJoinedGame)

	roster := expectType(t, host, protocol.TypePlayerJoined)
	players, _ := roster["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("roster = %v, want 2 players", roster["players"])
	}
}

func TestJoinUnknownGameCode(t *testing.T) {
	f := newWSFixture(t)

	conn := f.dial(t)
	send(t, conn, protocol.Inbound{
		Type:     protocol.TypeJoinGame,
		GameCode: "ZZZZZZ",
		Player:   &protocol.PlayerInfo{ID: "p1", Name: "Ada"},
	})
	errMsg := expectType(t, conn, protocol.TypeError)
	if errMsg["message"] != "Game not found" {
		t.Fatalf("message = %v", errMsg["message"])
	}
}

func TestMalformedMessages(t *testing.T) {
	f := newWSFixture(t)

	conn := f.dial(t)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectType(t, conn, protocol.TypeError)

	send(t, conn, protocol.Inbound{Type: "bogus"})
	expectType(t, conn, protocol.TypeError)

	// join_game without a player is invalid.
	send(t, conn, protocol.Inbound{Type: protocol.TypeJoinGame, GameCode: "AB12CD"})
	expectType(t, conn, protocol.TypeError)
}

func TestTwoPlayerRoundOverWebsocket(t *testing.T) {
	f := newWSFixture(t)
	code := f.createGame(t)

	host := f.dial(t)
	joinGame(t, host, code, "p1", "Ada")
	guest := f.dial(t)
	joinGame(t, guest, code, "p2", "Grace")
	expectType(t, host, protocol.TypePlayerJoined)

	send(t, host, protocol.Inbound{Type: protocol.TypeStartGame})
	started := expectType(t, host, protocol.TypeGameStarted)
	expectType(t, guest, protocol.TypeGameStarted)

	question, _ := started["question"].(map[string]any)
	answers, _ := question["answers"].([]any)
	if len(answers) != 2 {
		t.Fatalf("question answers = %v", question["answers"])
	}
	for _, a := range answers {
		if _, leaked := a.(map[string]any)["isCorrect"]; leaked {
			t.Fatalf("broadcast question leaked correctness: %v", a)
		}
	}

	send(t, guest, protocol.Inbound{Type: protocol.TypeSubmitAnswer, Answer: "a2"})
	expectType(t, host, protocol.TypePlayerAnswered)
	expectType(t, guest, protocol.TypePlayerAnswered)

	send(t, host, protocol.Inbound{Type: protocol.TypeSubmitAnswer, Answer: "a1"})
	ended := expectType(t, host, protocol.TypeQuestionEnded)
	expectType(t, guest, protocol.TypeQuestionEnded)
	if ended["correctAnswer"] != "a1" {
		t.Fatalf("correctAnswer = %v, want a1", ended["correctAnswer"])
	}

	// Single-question quiz: the grace delay leads straight to the final
	// ranking.
	finished := expectType(t, host, protocol.TypeGameFinished)
	expectType(t, guest, protocol.TypeGameFinished)
	ranked, _ := finished["players"].([]any)
	if len(ranked) != 2 {
		t.Fatalf("ranking = %v", finished["players"])
	}
	winner, _ := ranked[0].(map[string]any)
	if winner["id"] != "p1" {
		t.Fatalf("winner = %v, want p1", winner)
	}
}

func TestStartRejectionsReachOnlyRequester(t *testing.T) {
	f := newWSFixture(t)
	code := f.createGame(t)

	host := f.dial(t)
	joinGame(t, host, code, "p1", "Ada")
	guest := f.dial(t)
	joinGame(t, guest, code, "p2", "Grace")
	expectType(t, host, protocol.TypePlayerJoined)

	send(t, guest, protocol.Inbound{Type: protocol.TypeStartGame})
	errMsg := expectType(t, guest, protocol.TypeError)
	if errMsg["message"] != "Not authorized to start game" {
		t.Fatalf("message = %v", errMsg["message"])
	}
}

func TestDisconnectPromotesHost(t *testing.T) {
	f := newWSFixture(t)
	code := f.createGame(t)

	host := f.dial(t)
	joinGame(t, host, code, "p1", "Ada")
	guest := f.dial(t)
	joinGame(t, guest, code, "p2", "Grace")
	expectType(t, host, protocol.TypePlayerJoined)

	_ = host.Close()

	left := expectType(t, guest, protocol.TypePlayerLeft)
	if left["playerId"] != "p1" {
		t.Fatalf("playerId = %v, want p1", left["playerId"])
	}
	players, _ := left["players"].([]any)
	if len(players) != 1 {
		t.Fatalf("roster = %v, want 1 player", left["players"])
	}
	if isHost, _ := players[0].(map[string]any)["isHost"].(bool); !isHost {
		t.Fatal("remaining player not promoted to host")
	}
}

func TestJoinSecondGameLeavesFirst(t *testing.T) {
	f := newWSFixture(t)
	code1 := f.createGame(t)
	code2 := f.createGame(t)

	conn := f.dial(t)
	joinGame(t, conn, code1, "p1", "Ada")

	send(t, conn, protocol.Inbound{
		Type:     protocol.TypeJoinGame,
		GameCode: code2,
		Player:   &protocol.PlayerInfo{ID: "p1", Name: "Ada"},
	})
	joined := expectType(t, conn, protocol.TypeJoinedGame)
	if joined["gameCode"] != code2 {
		t.Fatalf("joined_game code = %v, want %s", joined["gameCode"], code2)
	}
	expectType(t, conn, protocol.TypePlayerJoined)

	// Hopping games must empty the first session so it gets reaped instead of
	// keeping a ghost player.
	if _, ok := f.registry.Get(code1); ok {
		t.Fatal("first session still registered after hopping to another game")
	}
	if f.registry.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", f.registry.Len())
	}
}

func TestLastDisconnectRemovesSession(t *testing.T) {
	f := newWSFixture(t)
	code := f.createGame(t)

	conn := f.dial(t)
	joinGame(t, conn, code, "p1", "Ada")
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after last disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
