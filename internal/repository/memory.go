package repository

import (
	"context"
	"sync"
	"time"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/internal/logging"
)

// Memory is the volatile in-process backend. A single coarse lock guards the
// map for the full duration of every operation. Sessions are held in their
// encoded record form so every FindByID rehydrates a fresh aggregate; callers
// never share a live session across goroutines, same isolation as the Redis
// backend.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	logging.Debug().Str("backend", "memory").Msg("initialized session repository")
	return &Memory{records: make(map[string][]byte)}
}

// Save upserts the session.
func (r *Memory) Save(ctx context.Context, session *domain.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[session.ID().String()] = data
	return nil
}

// FindByID looks a session up by id.
func (r *Memory) FindByID(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	r.mu.Lock()
	data, ok := r.records[id.String()]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeSession(data)
}

// Delete removes the session. A missing id reports ErrNotFound.
func (r *Memory) Delete(ctx context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id.String()]; !ok {
		return ErrNotFound
	}
	delete(r.records, id.String())
	return nil
}

// FindExpired scans all resident sessions for stale last activity. Records
// that fail to decode are skipped with a warning, never returned.
func (r *Memory) FindExpired(ctx context.Context, maxAgeHours int) ([]*domain.Session, error) {
	r.mu.Lock()
	snapshot := make(map[string][]byte, len(r.records))
	for id, data := range r.records {
		snapshot[id] = data
	}
	r.mu.Unlock()

	maxAge := time.Duration(maxAgeHours) * time.Hour
	now := time.Now().UTC()

	var expired []*domain.Session
	for id, data := range snapshot {
		lastActivity, err := lastActivityOf(data)
		if err != nil {
			logging.Warn().Err(err).Str("sessionId", id).Msg("skipping undecodable session record")
			continue
		}
		if now.Sub(lastActivity) <= maxAge {
			continue
		}
		session, err := decodeSession(data)
		if err != nil {
			logging.Warn().Err(err).Str("sessionId", id).Msg("skipping undecodable session record")
			continue
		}
		expired = append(expired, session)
	}
	return expired, nil
}

// Count returns the number of resident sessions.
func (r *Memory) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}
