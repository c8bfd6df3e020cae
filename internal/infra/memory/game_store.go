package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-game-service/internal/domain"
)

// GameStore keeps game records and answer logs in memory. It backs the demo
// configuration and tests; production wiring uses the postgres store.
type GameStore struct {
	mu      sync.Mutex
	games   map[string]domain.GameRecord
	answers []domain.AnswerRecord
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]domain.GameRecord)}
}

func (s *GameStore) CreateGame(_ context.Context, rec domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[rec.ID]; ok {
		return fmt.Errorf("game %s already exists", rec.ID)
	}
	s.games[rec.ID] = rec
	return nil
}

func (s *GameStore) UpdateGameStatus(_ context.Context, gameID string, status domain.GameStatus, currentQuestion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	rec.Status = status
	rec.CurrentQuestion = currentQuestion
	s.games[gameID] = rec
	return nil
}

func (s *GameStore) LogAnswer(_ context.Context, rec domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, rec)
	return nil
}

// Answers returns a copy of the logged answers for a game.
func (s *GameStore) Answers(gameID string) []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AnswerRecord, 0, len(s.answers))
	for _, a := range s.answers {
		if a.GameID == gameID {
			out = append(out, a)
		}
	}
	return out
}

// Games returns a copy of all stored game records.
func (s *GameStore) Games() []domain.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GameRecord, 0, len(s.games))
	for _, rec := range s.games {
		out = append(out, rec)
	}
	return out
}

// Game returns the stored record for a game ID.
func (s *GameStore) Game(gameID string) (domain.GameRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[gameID]
	return rec, ok
}
