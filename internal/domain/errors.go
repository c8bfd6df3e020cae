package domain

import "errors"

var (
	// ErrGameNotFound is returned when no active session matches a game code.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFull is returned when a join would exceed the quiz player limit.
	ErrGameFull = errors.New("game is full")
	// ErrNotAuthorized is returned when a non-host attempts a host-only operation.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrNotEnoughPlayers is returned when a start is attempted below the quiz minimum.
	ErrNotEnoughPlayers = errors.New("not enough players")
	// ErrInvalidMessage indicates an inbound message failed schema validation.
	ErrInvalidMessage = errors.New("invalid message format")
	// ErrPlayerUnknown indicates a message references a player not in the session.
	// Typically a stale or duplicate message; handled as a silent no-op.
	ErrPlayerUnknown = errors.New("player not in game")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizEmpty rejects games over quizzes with no questions; a session
	// could never leave its first round.
	ErrQuizEmpty = errors.New("quiz has no questions")
	// ErrGameAlreadyStarted is returned when a join is rejected by the late-join policy.
	ErrGameAlreadyStarted = errors.New("game already started")
)
