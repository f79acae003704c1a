package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/logging"
)

const (
	sessionKeyPrefix = "session:"
	scanPageSize     = 100
)

// Redis is the remote backend. Each session is serialized to a JSON record
// and stored under a key derived from its id, with a TTL equal to the
// configured maximum session age. Consistency is delegated to Redis: every
// Save is a full overwrite, so the repository never performs a
// read-modify-write across separate calls.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed repository. The client's connection
// handling (pooling, reconnects) is Redis' own; this layer does not retry.
func NewRedis(client *redis.Client, ttlHours int) *Redis {
	logging.Debug().
		Str("backend", "redis").
		Int("ttl_hours", ttlHours).
		Msg("initialized session repository")
	return &Redis{
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}
}

func sessionKey(id domain.SessionID) string {
	return sessionKeyPrefix + id.String()
}

// Save upserts the full aggregate under its key and resets the TTL.
func (r *Redis) Save(ctx context.Context, session *domain.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID(), err)
	}

	if err := r.client.Set(ctx, sessionKey(session.ID()), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.ID(), err)
	}

	logging.Debug().
		Str("session_id", session.ID().String()).
		Int("messages", len(session.Messages())).
		Int("tasks", len(session.Tasks())).
		Msg("session saved")
	return nil
}

// FindByID looks a session up and deserializes it. Missing and corrupt
// records both report ErrNotFound; corruption is logged, never surfaced.
func (r *Redis) FindByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session %s: %w", id, err)
	}

	session, err := decodeSession(data)
	if err != nil {
		logging.Error().
			Str("session_id", id.String()).
			Err(err).
			Msg("session record corrupt, treating as not found")
		return nil, ErrNotFound
	}
	return session, nil
}

// Delete removes the session key. A missing key reports ErrNotFound.
func (r *Redis) Delete(ctx context.Context, id domain.SessionID) error {
	deleted, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// FindExpired walks the whole session key space with cursor-based SCAN,
// because Redis' own TTL eviction is not queryable. O(total keys); known
// scaling limitation.
func (r *Redis) FindExpired(ctx context.Context, maxAgeHours int) ([]*domain.Session, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(maxAgeHours) * time.Hour)

	var expired []*domain.Session
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionKeyPrefix+"*", scanPageSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Bytes()
			if err != nil {
				// Evicted between SCAN and GET, or transient; skip.
				continue
			}

			lastActivity, err := lastActivityOf(data)
			if err != nil {
				logging.Warn().Str("key", key).Err(err).Msg("skipping corrupt session record")
				continue
			}
			if !lastActivity.Before(cutoff) {
				continue
			}

			session, err := decodeSession(data)
			if err != nil {
				logging.Warn().Str("key", key).Err(err).Msg("skipping corrupt session record")
				continue
			}
			expired = append(expired, session)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(expired) > 0 {
		logging.Info().
			Int("count", len(expired)).
			Int("max_age_hours", maxAgeHours).
			Msg("expired sessions found")
	}
	return expired, nil
}

// Count scans the key space and counts session keys.
func (r *Redis) Count(ctx context.Context) (int, error) {
	var count int
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionKeyPrefix+"*", scanPageSize).Result()
		if err != nil {
			return 0, fmt.Errorf("scan sessions: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count, nil
}
