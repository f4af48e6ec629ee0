package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/hupe1980/tripsession/core"
)

var (
	// ErrNotFound is returned when no session is stored under an id.
	ErrNotFound = core.ErrSessionNotFound
	// ErrEmptyID is returned when saving under an empty id.
	ErrEmptyID = errors.New("session id must not be empty")
)

// NewID returns a fresh random session identifier.
func NewID() string { return uuid.NewString() }
