// Package repository provides persistence for session aggregates with two
// interchangeable backends: a volatile in-process store and a Redis store
// with TTL semantics.
package repository

import (
	"context"
	"errors"

	"github.com/context-kit/contextkit/internal/domain"
)

// ErrNotFound is returned when a session id does not resolve. Not-found is a
// normal outcome, not a failure; callers decide whether to log it.
var ErrNotFound = errors.New("session not found")

// SessionRepository is the persistence contract both backends satisfy
// identically. Save upserts the whole aggregate with overwrite semantics;
// there are no partial updates.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	FindByID(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	// Delete removes the aggregate. Deleting a missing id returns
	// ErrNotFound so callers can observe it, but it is not a failure.
	Delete(ctx context.Context, id domain.SessionID) error
	// FindExpired returns sessions whose last activity is older than
	// maxAgeHours, in arbitrary order.
	FindExpired(ctx context.Context, maxAgeHours int) ([]*domain.Session, error)
	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
}
