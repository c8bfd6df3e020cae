package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"quiz-game-service/internal/domain"
)

func TestViewOfStripsCorrectness(t *testing.T) {
	q := domain.Question{
		ID:   "q1",
		Text: "What is the capital of France?",
		Answers: []domain.Answer{
			{ID: "a1", Text: "Paris", Correct: true},
			{ID: "a2", Text: "Lyon"},
		},
	}

	view := ViewOf(q, 30)
	if view.TimeLimit != 30 {
		t.Fatalf("timeLimit = %d, want fallback 30", view.TimeLimit)
	}

	raw, err := json.Marshal(NewGameStarted(view, 0, 3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "isCorrect") {
		t.Fatalf("broadcast question leaks correctness: %s", raw)
	}

	var msg GameStarted
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.CurrentQuestion != 1 || msg.TotalQuestions != 3 {
		t.Fatalf("progress = %d/%d, want 1/3", msg.CurrentQuestion, msg.TotalQuestions)
	}
}

func TestViewOfPrefersQuestionTimeLimit(t *testing.T) {
	q := domain.Question{ID: "q1", TimeLimit: 10}
	if got := ViewOf(q, 30).TimeLimit; got != 10 {
		t.Fatalf("timeLimit = %d, want question override 10", got)
	}
}

func TestInboundParsesClientMessages(t *testing.T) {
	raw := `{"type":"join_game","gameCode":"AB12CD","player":{"id":"p1","name":"Ada","avatar":"cat"}}`
	var msg Inbound
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != TypeJoinGame || msg.GameCode != "AB12CD" {
		t.Fatalf("msg = %+v", msg)
	}
	if msg.Player == nil || msg.Player.Name != "Ada" || msg.Player.Avatar != "cat" {
		t.Fatalf("player = %+v", msg.Player)
	}

	var answer Inbound
	if err := json.Unmarshal([]byte(`{"type":"submit_answer","answer":"a1"}`), &answer); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if answer.Type != TypeSubmitAnswer || answer.Answer != "a1" {
		t.Fatalf("msg = %+v", answer)
	}
}
