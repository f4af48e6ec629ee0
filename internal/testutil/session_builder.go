package testutil

import (
	"github.com/hupe1980/tripsession/core"
)

// SessionBuilder helps construct a session pre-populated with turns.
type SessionBuilder struct {
	window int
	turns  []core.Turn
	opts   []func(o *core.SessionOptions)
}

// NewSessionBuilder creates a builder for a session with the given window.
func NewSessionBuilder(window int) *SessionBuilder { return &SessionBuilder{window: window} }

// Turn appends a turn built elsewhere (chainable).
func (b *SessionBuilder) Turn(t core.Turn) *SessionBuilder {
	b.turns = append(b.turns, t)
	return b
}

// Ask appends a user text turn (chainable).
func (b *SessionBuilder) Ask(text string) *SessionBuilder { return b.Turn(core.NewUserText(text)) }

// Reply appends a model text turn (chainable).
func (b *SessionBuilder) Reply(text string) *SessionBuilder { return b.Turn(core.NewModelText(text)) }

// Options adds session options (chainable).
func (b *SessionBuilder) Options(fns ...func(o *core.SessionOptions)) *SessionBuilder {
	b.opts = append(b.opts, fns...)
	return b
}

// Build creates the session and appends every turn through the typed
// entry points, so windowing applies exactly as in production.
func (b *SessionBuilder) Build() (*core.Session, error) {
	s, err := core.NewSession(b.window, b.opts...)
	if err != nil {
		return nil, err
	}
	for _, t := range b.turns {
		if t.Role == core.RoleModel {
			err = s.ReplyBlocks(t.Blocks...)
		} else {
			err = s.AskBlocks(t.Blocks...)
		}
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustBuild is Build that panics on error.
func (b *SessionBuilder) MustBuild() *core.Session {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
