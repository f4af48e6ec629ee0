package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/tripsession/logging"
)

const (
	// InvalidResponsePrefix starts the user turn injected when a structured ask
	// payload cannot be parsed.
	InvalidResponsePrefix = "INVALID_RESPONSE:\n"
	// InvalidFormatPrefix starts the diagnostic model turn appended when a
	// replayed turn is not well-formed.
	InvalidFormatPrefix = "ERROR: INVALID RESPONSE FORMAT\n"
	// InvalidHistoryPrefix starts the diagnostic model turn appended when a
	// replayed turn breaks the chat protocol.
	InvalidHistoryPrefix = "ERROR: INVALID SESSION HISTORY\n"
)

// initialCapacity bounds the turn slice preallocated by NewSession; the window
// itself may be arbitrarily large.
const initialCapacity = 16

// SessionOptions configures a Session.
type SessionOptions struct {
	// Logger receives ingestion diagnostics and eviction notices.
	Logger logging.Logger
}

// Session is a bounded, ordered history of turns. After every mutating call
// the number of retained turns is at most Window; the oldest turns are evicted
// first and the turn just appended is never evicted.
//
// A Session is a plain value owned by a single caller. It performs no locking
// and must not be mutated concurrently.
type Session struct {
	*loggerAdapter
	window int
	turns  []Turn
}

// NewSession creates an empty session retaining at most window turns.
func NewSession(window int, optFns ...func(o *SessionOptions)) (*Session, error) {
	if window < 1 {
		return nil, ErrInvalidWindow
	}

	opts := SessionOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Session{
		loggerAdapter: newLoggerAdapter(opts.Logger),
		window:        window,
		turns:         make([]Turn, 0, min(window, initialCapacity)),
	}, nil
}

// Window returns the maximum number of retained turns.
func (s *Session) Window() int { return s.window }

// Len returns the number of retained turns.
func (s *Session) Len() int { return len(s.turns) }

// Turns returns a deep copy of the retained turns, oldest first.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.Clone()
	}
	return out
}

// LastTurn returns the most recent turn or ErrEmptySession.
func (s *Session) LastTurn() (Turn, error) {
	if len(s.turns) == 0 {
		return Turn{}, ErrEmptySession
	}
	return s.turns[len(s.turns)-1].Clone(), nil
}

// DisplayText returns the user-visible text of the most recent turn, joining
// its text blocks with sep.
func (s *Session) DisplayText(sep string) (string, error) {
	last, err := s.LastTurn()
	if err != nil {
		return "", err
	}
	return last.Text(sep), nil
}

// Ask appends a user turn holding a single text block.
func (s *Session) Ask(text string) {
	s.append(NewUserText(text))
}

// AskBlocks appends a user turn holding the given blocks. Blocks are checked
// against the same rules as parsed parts; on failure nothing is appended and
// a *ParseError is returned.
func (s *Session) AskBlocks(blocks ...Block) error {
	return s.appendBlocks(RoleUser, blocks)
}

// AskStructured parses payload as a JSON array of parts and appends it as a
// user turn. A malformed payload is not an error: the parse failure is
// appended as user text prefixed with InvalidResponsePrefix so the model can
// correct itself on its next turn.
func (s *Session) AskStructured(payload []byte) {
	blocks, err := ParseBlocks(payload)
	if err != nil {
		s.logIngestion("ask_structured", err)
		s.Ask(InvalidResponsePrefix + err.Error())
		return
	}
	s.logIngestion("ask_structured", nil)
	s.append(Turn{Role: RoleUser, Blocks: blocks})
}

// Reply appends a model turn holding a single text block.
func (s *Session) Reply(text string) {
	s.append(NewModelText(text))
}

// ReplyBlocks appends a model turn holding the given blocks. It fails like
// AskBlocks.
func (s *Session) ReplyBlocks(blocks ...Block) error {
	return s.appendBlocks(RoleModel, blocks)
}

// ReplyStructured parses payload as a JSON array of parts and appends it as a
// model turn. On failure nothing is appended and a *ParseError is returned.
func (s *Session) ReplyStructured(payload []byte) error {
	blocks, err := ParseBlocks(payload)
	if err != nil {
		s.logIngestion("reply_structured", err)
		return err
	}
	s.logIngestion("reply_structured", nil)
	s.append(Turn{Role: RoleModel, Blocks: blocks})
	return nil
}

// AppendTurn parses payload as a complete turn and appends it verbatim. It is
// used to replay persisted history and always appends exactly one turn: a
// payload that cannot be parsed or that breaks CheckTurn is replaced by a
// diagnostic model turn so replay of later turns can continue.
func (s *Session) AppendTurn(payload []byte) {
	t, err := ParseTurn(payload)
	if err != nil {
		s.logIngestion("append_turn", err)
		s.Reply(InvalidFormatPrefix + err.Error())
		return
	}

	if err := CheckTurn(s.turns, t); err != nil {
		s.logIngestion("append_turn", err)
		s.Reply(InvalidHistoryPrefix + err.Error())
		return
	}

	s.logIngestion("append_turn", nil)
	s.append(t)
}

// Equal reports whether both sessions have the same window and turn sequence.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.window == other.window && slices.EqualFunc(s.turns, other.turns, Turn.Equal)
}

// Clone returns an independent copy of the session sharing its logger.
func (s *Session) Clone() *Session {
	return &Session{loggerAdapter: s.loggerAdapter, window: s.window, turns: s.Turns()}
}

type wireSession struct {
	Window int    `json:"window"`
	Turns  []Turn `json:"turns"`
}

// Serialize renders the session (window and turns) in its canonical JSON form.
func (s *Session) Serialize() ([]byte, error) {
	turns := s.turns
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.Marshal(wireSession{Window: s.window, Turns: turns})
	if err != nil {
		return nil, fmt.Errorf("serialize session: %w", err)
	}
	return data, nil
}

// Deserialize restores a session produced by Serialize. Errors are returned
// as *ParseError.
func Deserialize(data []byte, optFns ...func(o *SessionOptions)) (*Session, error) {
	var ws wireSession
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, newParseError("session", err)
	}
	if ws.Window < 1 {
		return nil, newParseError("session", ErrInvalidWindow)
	}
	if len(ws.Turns) > ws.Window {
		return nil, newParseError("session", fmt.Errorf("%d turns exceed window %d", len(ws.Turns), ws.Window))
	}
	for i, t := range ws.Turns {
		if !t.Role.Valid() {
			return nil, newParseError("session", fmt.Errorf("turn %d: unknown role %q", i, t.Role))
		}
		if len(t.Blocks) == 0 {
			return nil, newParseError("session", fmt.Errorf("turn %d: no parts", i))
		}
	}

	s, err := NewSession(ws.Window, optFns...)
	if err != nil {
		return nil, newParseError("session", err)
	}
	s.turns = append(s.turns, ws.Turns...)
	return s, nil
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func (s *Session) append(t Turn) {
	s.turns = append(s.turns, t)
	if over := len(s.turns) - s.window; over > 0 {
		s.turns = slices.Delete(s.turns, 0, over)
		s.logEviction(over, s.window)
	}
}

func (s *Session) appendBlocks(role Role, blocks []Block) error {
	t, err := newTurn(role, blocks)
	if err != nil {
		s.logIngestion("blocks", err)
		return err
	}
	s.append(t)
	return nil
}

func newTurn(role Role, blocks []Block) (Turn, error) {
	if len(blocks) == 0 {
		return Turn{}, newParseError("blocks", errors.New("expected at least one block"))
	}
	t := Turn{Role: role, Blocks: make([]Block, len(blocks))}
	for i, b := range blocks {
		nb, err := normalizeBlock(cloneBlock(b))
		if err != nil {
			return Turn{}, newParseError("blocks", fmt.Errorf("block %d: %w", i, err))
		}
		t.Blocks[i] = nb
	}
	return t, nil
}
