package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"jiran/pkg/requestcontext"
)

// Attempt statuses tracked under the client-generated idempotency key.
const (
	AttemptStarted         = "started"
	AttemptIdentityCreated = "identity_created"
	AttemptCompleted       = "completed"
	AttemptFailed          = "failed"
)

// Attempt records how far a registration attempt got. A resubmission
// with the same key is detected instead of silently duplicating rows
// for steps that already ran.
type Attempt struct {
	Key       string    `json:"key"`
	Email     string    `json:"email"`
	UserID    string    `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AttemptStore persists attempt progress.
//
// Error contract:
//   - Begin reports found=true with the existing record when the key
//     was already used
//   - wrapped errors with context for infrastructure failures
type AttemptStore interface {
	Begin(ctx context.Context, key, email string) (existing Attempt, found bool, err error)
	Update(ctx context.Context, attempt Attempt) error
}

// InMemoryAttempts tracks attempts in a map for tests and for
// deployments without Redis.
type InMemoryAttempts struct {
	mu       sync.Mutex
	attempts map[string]Attempt
}

// NewInMemoryAttempts constructs an empty in-memory attempt store.
func NewInMemoryAttempts() *InMemoryAttempts {
	return &InMemoryAttempts{attempts: make(map[string]Attempt)}
}

func (s *InMemoryAttempts) Begin(ctx context.Context, key, email string) (Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, found := s.attempts[key]; found {
		return existing, true, nil
	}
	attempt := Attempt{
		Key:       key,
		Email:     email,
		Status:    AttemptStarted,
		UpdatedAt: requestcontext.Now(ctx),
	}
	s.attempts[key] = attempt
	return attempt, false, nil
}

func (s *InMemoryAttempts) Update(ctx context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.UpdatedAt = requestcontext.Now(ctx)
	s.attempts[attempt.Key] = attempt
	return nil
}

// RedisAttempts tracks attempts in Redis so progress survives a crashed
// process and is visible across replicas.
type RedisAttempts struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisAttempts constructs a Redis-backed attempt store. Records
// expire after ttl; a day is plenty for a stuck wizard retry.
func NewRedisAttempts(client *goredis.Client, ttl time.Duration) *RedisAttempts {
	return &RedisAttempts{client: client, ttl: ttl}
}

func attemptKey(key string) string {
	return "signup:attempt:" + key
}

func (s *RedisAttempts) Begin(ctx context.Context, key, email string) (Attempt, bool, error) {
	attempt := Attempt{
		Key:       key,
		Email:     email,
		Status:    AttemptStarted,
		UpdatedAt: requestcontext.Now(ctx),
	}
	payload, err := json.Marshal(attempt)
	if err != nil {
		return Attempt{}, false, fmt.Errorf("marshal attempt: %w", err)
	}

	created, err := s.client.SetNX(ctx, attemptKey(key), payload, s.ttl).Result()
	if err != nil {
		return Attempt{}, false, fmt.Errorf("begin attempt: %w", err)
	}
	if created {
		return attempt, false, nil
	}

	raw, err := s.client.Get(ctx, attemptKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		// Expired between SetNX and Get; treat as fresh.
		return attempt, false, nil
	}
	if err != nil {
		return Attempt{}, false, fmt.Errorf("load attempt: %w", err)
	}
	var existing Attempt
	if err := json.Unmarshal(raw, &existing); err != nil {
		return Attempt{}, false, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return existing, true, nil
}

func (s *RedisAttempts) Update(ctx context.Context, attempt Attempt) error {
	attempt.UpdatedAt = requestcontext.Now(ctx)
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, attemptKey(attempt.Key), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	return nil
}
