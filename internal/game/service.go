// Package game implements the real-time session engine: the per-game state
// machine, its countdown timer, the scoring policy, and the service façade the
// transport layer drives.
package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/protocol"
)

// SessionRegistry maps game codes to live sessions. Register must be
// compare-and-set: it returns false when the code is already taken, so the
// service can regenerate on collision.
type SessionRegistry interface {
	Register(code string, s *Session) bool
	Get(code string) (*Session, bool)
	Remove(code string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// GameStore persists game records and per-question answer logs.
type GameStore interface {
	CreateGame(ctx context.Context, rec domain.GameRecord) error
	UpdateGameStatus(ctx context.Context, gameID string, status domain.GameStatus, currentQuestion int) error
	LogAnswer(ctx context.Context, rec domain.AnswerRecord) error
}

// Config carries the engine's tunables.
type Config struct {
	// GraceDelay is the pause between question_ended and the next question,
	// giving players time to read the results.
	GraceDelay time.Duration
	// DefaultTimeLimit applies when neither the question nor the quiz sets one.
	DefaultTimeLimit int
	// AllowLateJoin admits players into games that are already in progress.
	AllowLateJoin bool
	// CodeAttempts bounds game-code regeneration on registry collisions.
	CodeAttempts int
}

func (c Config) withDefaults() Config {
	if c.GraceDelay <= 0 {
		c.GraceDelay = 3 * time.Second
	}
	if c.DefaultTimeLimit <= 0 {
		c.DefaultTimeLimit = 30
	}
	if c.CodeAttempts <= 0 {
		c.CodeAttempts = 5
	}
	return c
}

// Service owns the session registry and exposes the engine's use cases to the
// transport layer. One instance serves many concurrent sessions.
type Service struct {
	registry SessionRegistry
	quizzes  QuizRepository
	store    GameStore
	notifier Notifier
	clock    clockwork.Clock
	cfg      Config
	log      zerolog.Logger
}

func NewService(registry SessionRegistry, quizzes QuizRepository, store GameStore, notifier Notifier, clock clockwork.Clock, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		quizzes:  quizzes,
		store:    store,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// CreateGame snapshots the quiz, persists a game record, and registers a new
// waiting session under a freshly generated code.
func (s *Service) CreateGame(ctx context.Context, quizID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuizEmpty
	}

	gameID := uuid.NewString()
	var session *Session
	for attempt := 0; ; attempt++ {
		if attempt >= s.cfg.CodeAttempts {
			return nil, fmt.Errorf("create game: no free game code after %d attempts", attempt)
		}
		code := generateGameCode()
		session = NewSession(code, gameID, quiz, s.clock, s.notifier, s.store, s.cfg, s.log)
		if s.registry.Register(code, session) {
			break
		}
	}

	if s.store != nil {
		rec := domain.GameRecord{
			ID:        gameID,
			QuizID:    quiz.ID,
			GameCode:  session.Code(),
			Status:    domain.StatusWaiting,
			CreatedAt: s.clock.Now(),
		}
		if err := s.store.CreateGame(ctx, rec); err != nil {
			s.registry.Remove(session.Code())
			return nil, fmt.Errorf("create game record: %w", err)
		}
	}

	s.log.Info().Str("game_code", session.Code()).Str("quiz_id", quiz.ID).Msg("game created")
	return session, nil
}

// GetQuiz exposes quiz lookup to the REST surface.
func (s *Service) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Snapshot returns the lobby view of an active session.
func (s *Service) Snapshot(code string) (Snapshot, error) {
	session, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return Snapshot{}, domain.ErrGameNotFound
	}
	return session.Snapshot(), nil
}

// Join adds a player to the session identified by code.
func (s *Service) Join(code string, info protocol.PlayerInfo) (domain.Player, error) {
	session, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return domain.Player{}, domain.ErrGameNotFound
	}
	return session.Join(info)
}

// Start begins the game; host-only.
func (s *Service) Start(code, playerID string) error {
	session, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return domain.ErrGameNotFound
	}
	return session.Start(playerID)
}

// SubmitAnswer routes an answer to its session. Stale answers are dropped
// silently per the protocol contract.
func (s *Service) SubmitAnswer(code, playerID, answerID string) error {
	session, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return domain.ErrGameNotFound
	}
	session.SubmitAnswer(playerID, answerID)
	return nil
}

// NextQuestion is the host's manual advance.
func (s *Service) NextQuestion(code, playerID string) error {
	session, ok := s.registry.Get(normalizeCode(code))
	if !ok {
		return domain.ErrGameNotFound
	}
	return session.Advance(playerID)
}

// Disconnect removes a player and drops the session once the roster empties.
func (s *Service) Disconnect(code, playerID string) {
	normalized := normalizeCode(code)
	session, ok := s.registry.Get(normalized)
	if !ok {
		return
	}
	if session.Leave(playerID) {
		s.registry.Remove(normalized)
		s.log.Info().Str("game_code", normalized).Msg("session removed, last player left")
	}
}

// generateGameCode returns a 6-character, human-typable uppercase token.
func generateGameCode() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
