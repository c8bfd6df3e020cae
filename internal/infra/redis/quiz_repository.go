package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-game-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., document DB).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches whole quiz documents in Redis as JSON under
// quiz:{quizID}:doc and falls back to a loader on cache miss. The session
// engine needs the full document (title, prompts, limits, answer flags), so a
// single marshalled value per quiz is cached rather than per-field hashes.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := r.docKey(quizID)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err == nil {
			return quiz, nil
		}
		// Corrupt entry; drop it and reload.
		_ = r.client.Del(ctx, key).Err()
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var quiz domain.Quiz
			if err := json.Unmarshal(raw, &quiz); err == nil {
				return quiz, nil
			}
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if raw, err := json.Marshal(quiz); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) docKey(quizID string) string {
	return "quiz:" + quizID + ":doc"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
