package core

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by a SessionStore when no session is stored
// under the requested id.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarizes a stored session without decoding its turns.
type SessionInfo struct {
	ID        string
	Window    int
	TurnCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore persists sessions by id. Implementations store exactly the
// bytes produced by Session.Serialize and hand out independent sessions on
// Load. They must be safe for concurrent use.
type SessionStore interface {
	Save(ctx context.Context, id string, s *Session) error
	Load(ctx context.Context, id string, optFns ...func(o *SessionOptions)) (*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]SessionInfo, error)
}
