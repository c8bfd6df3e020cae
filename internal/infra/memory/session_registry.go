package memory

import (
	"sync"

	"quiz-game-service/internal/game"
)

// SessionRegistry is the in-memory implementation of game.SessionRegistry.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*game.Session),
	}
}

// Register claims a game code. Returns false if the code is already in use.
func (r *SessionRegistry) Register(code string, s *game.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[code]; ok {
		return false
	}
	r.sessions[code] = s
	return true
}

func (r *SessionRegistry) Get(code string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

func (r *SessionRegistry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, code)
}

// Len reports the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
