package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySession is returned by read operations on a session without turns.
	ErrEmptySession = errors.New("session has no turns")
	// ErrInvalidWindow is returned when a session window is smaller than one.
	ErrInvalidWindow = errors.New("session window must be at least 1")
)

// ParseError reports a payload that is not well-formed block or turn data.
type ParseError struct {
	Input string // "blocks", "turn" or "session"
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s payload: %v", e.Input, e.Err)
}

// Unwrap exposes the underlying decoding error.
func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolViolation reports a well-formed turn rejected by the chat
// structure rules enforced in CheckTurn.
type ProtocolViolation struct {
	Rule    string // Short machine friendly rule identifier
	Message string // Human-readable explanation
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation [%s]: %s", e.Rule, e.Message)
}

func newParseError(input string, err error) *ParseError {
	return &ParseError{Input: input, Err: err}
}
