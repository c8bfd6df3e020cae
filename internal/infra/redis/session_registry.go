package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/game"
)

// SessionRegistry is a Redis-aware implementation of game.SessionRegistry.
// Notes:
//   - Sessions themselves stay in a local map: the state machine and its timer
//     are single-process by design, and cross-process session sharing is out
//     of scope.
//   - Redis marks code liveness so dashboards (and a future multi-instance
//     router) can see which codes are occupied, and so codes stay unique even
//     if a second instance shares the database.
type SessionRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*game.Session),
	}
}

func (r *SessionRegistry) Register(code string, s *game.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[code]; ok {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	claimed, err := r.client.SetNX(ctx, r.key(code), "1", r.ttl).Result()
	if err == nil && !claimed {
		// Another instance holds this code.
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
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.client.Del(ctx, r.key(code)).Err()
}

func (r *SessionRegistry) key(code string) string {
	return "game:code:" + code
}
