package redis

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/game"
)

func testClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

type countingLoader struct {
	calls int64
	quiz  domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	atomic.AddInt64(&l.calls, 1)
	if quizID != l.quiz.ID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quiz, nil
}

func TestQuizRepositoryCachesDocument(t *testing.T) {
	client, srv := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{
		ID:    "quiz-1",
		Title: "Capitals",
		Questions: []domain.Question{
			{ID: "q1", Answers: []domain.Answer{{ID: "a1", Correct: true}}},
		},
	}}
	repo := NewQuizRepository(client, loader, time.Minute)
	ctx := context.Background()

	quiz, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Capitals" || quiz.Questions[0].CorrectAnswer() != "a1" {
		t.Fatalf("quiz = %+v", quiz)
	}

	raw, err := srv.Get("quiz:quiz-1:doc")
	if err != nil {
		t.Fatalf("cached doc missing: %v", err)
	}
	var cached domain.Quiz
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("cached doc not JSON: %v", err)
	}

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("loader calls = %d, want 1", got)
	}
}

func TestQuizRepositoryReloadsCorruptEntry(t *testing.T) {
	client, srv := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{ID: "quiz-1", Title: "Capitals"}}
	repo := NewQuizRepository(client, loader, time.Minute)

	srv.Set("quiz:quiz-1:doc", "{not json")

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Capitals" {
		t.Fatalf("quiz = %+v", quiz)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("loader calls = %d, want 1", got)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	client, _ := testClient(t)
	loader := &countingLoader{quiz: domain.Quiz{ID: "quiz-1"}}
	repo := NewQuizRepository(client, loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("err = %v, want ErrQuizNotFound", err)
	}
}

func TestSessionRegistryClaimsCodeInRedis(t *testing.T) {
	client, srv := testClient(t)
	registry := NewSessionRegistry(client, time.Hour)

	s := &game.Session{}
	if !registry.Register("AB12CD", s) {
		t.Fatal("register failed")
	}
	if !srv.Exists("game:code:AB12CD") {
		t.Fatal("liveness key not set")
	}

	got, ok := registry.Get("AB12CD")
	if !ok || got != s {
		t.Fatal("session not retrievable")
	}

	// A second instance sharing the database cannot claim the same code.
	other := NewSessionRegistry(client, time.Hour)
	if other.Register("AB12CD", &game.Session{}) {
		t.Fatal("code claimed twice across instances")
	}

	registry.Remove("AB12CD")
	if srv.Exists("game:code:AB12CD") {
		t.Fatal("liveness key not released")
	}
	if _, ok := registry.Get("AB12CD"); ok {
		t.Fatal("removed session still retrievable")
	}
}
