package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no live session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store persists sessions by id. Implementations return copies, so callers must
// Put a modified session back for the change to be visible.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Remove(ctx context.Context, id string) error
}
