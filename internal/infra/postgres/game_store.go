package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-game-service/internal/domain"
)

// GameStore persists game records and answer logs to Postgres.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) CreateGame(ctx context.Context, rec domain.GameRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, quiz_id, game_code, status, current_question, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.QuizID, rec.GameCode, string(rec.Status), rec.CurrentQuestion, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *GameStore) UpdateGameStatus(ctx context.Context, gameID string, status domain.GameStatus, currentQuestion int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE games SET status=$2, current_question=$3 WHERE id=$1`,
		gameID, string(status), currentQuestion)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

func (s *GameStore) LogAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_answers (game_id, player_id, question_index, answer, is_correct, time_to_answer, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.GameID, rec.PlayerID, rec.QuestionIndex, rec.Answer, rec.Correct, rec.TimeToAnswer, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}
