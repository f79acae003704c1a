package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/pkg/types"
)

// New creates a session repository for the configured backend. Unknown
// backends fall back to memory with a warning rather than failing startup.
func New(cfg *types.Config) (SessionRepository, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logging.Info().
			Str("backend", "redis").
			Str("host", cfg.Redis.Host).
			Int("port", cfg.Redis.Port).
			Msg("creating session repository")
		return NewRedis(client, cfg.Session.MaxAgeHours), nil

	case "memory", "":
		logging.Info().Str("backend", "memory").Msg("creating session repository")
		return NewMemory(), nil

	default:
		logging.Warn().
			Str("backend", cfg.Storage.Backend).
			Strs("supported", []string{"memory", "redis"}).
			Msg("unknown storage backend, falling back to memory")
		return NewMemory(), nil
	}
}

// CleanupExpired deletes every session whose last activity is older than
// maxAgeHours and returns how many were removed.
func CleanupExpired(ctx context.Context, repo SessionRepository, maxAgeHours int) (int, error) {
	expired, err := repo.FindExpired(ctx, maxAgeHours)
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	removed := 0
	for _, session := range expired {
		if err := repo.Delete(ctx, session.ID()); err != nil {
			// Already gone (TTL eviction raced the sweep) or transient;
			// keep sweeping.
			logging.Warn().
				Str("session_id", session.ID().String()).
				Err(err).
				Msg("failed to delete expired session")
			continue
		}
		removed++
	}

	if removed > 0 {
		logging.Info().Int("count", removed).Msg("expired sessions cleaned")
	}
	return removed, nil
}
