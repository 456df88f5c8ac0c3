package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const (
	sessionPrefix    = "storefront:session:"
	generationPrefix = "storefront:generation:"
)

// SessionRepository implements repository.SessionRepository using Redis.
// Each session is one JSON value; the request generation counter lives in a
// separate key so that reserving a generation never conflicts with a write.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

// Get loads and normalizes the session for userID.
func (r *SessionRepository) Get(ctx context.Context, userID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", userID)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	return decode(data)
}

// SaveIfVersion performs a WATCH/MULTI compare-and-set on the session key.
func (r *SessionRepository) SaveIfVersion(ctx context.Context, s *domain.Session, expectedVersion int) (bool, error) {
	key := sessionPrefix + s.UserID
	saved := false

	txf := func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get session: %w", err)
		default:
			stored, err := decode(data)
			if err != nil {
				return err
			}
			current = stored.Version
		}
		if current != expectedVersion {
			return nil
		}

		next := *s
		next.Version = expectedVersion + 1
		next.SchemaVersion = domain.SessionSchemaVersion
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		s.Version = next.Version
		s.SchemaVersion = next.SchemaVersion
		saved = true
		return nil
	}

	if err := r.client.Watch(ctx, txf, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return false, nil
		}
		return false, fmt.Errorf("redis save session: %w", err)
	}
	return saved, nil
}

// NextGeneration increments the per-user generation counter. The counter
// shares the session TTL so it never outlives a session by long.
func (r *SessionRepository) NextGeneration(ctx context.Context, userID string) (int64, error) {
	key := generationPrefix + userID
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr generation: %w", err)
	}
	return incr.Val(), nil
}

// Delete removes the session and its generation counter.
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, sessionPrefix+userID, generationPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func decode(data []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}
