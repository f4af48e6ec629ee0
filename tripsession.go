// Package tripsession is the host-facing façade over a bounded conversation
// session. A Manager owns one core.Session together with the settings the
// host chose for it: how many turns are retained, which ingestion entry
// points are enabled, how pending function calls are labeled and where the
// session is persisted.
//
// Two presets cover the common hosts:
//   - PlannerPreset: window 10 with structured ask and reply (a web planner
//     that exchanges JSON part arrays with its model service)
//   - ReplayPreset: window 50 with plain text ingestion and history replay
//     (a chat view that restores persisted turns one at a time)
//
// Typical usage:
//
//	m, err := tripsession.New(tripsession.PlannerPreset)
//	m.Ask("Plan a weekend in Lisbon")
//	m.ReplyStructured(payload)
//	labels, _ := m.PendingLabels()
package tripsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/tripsession/core"
	"github.com/hupe1980/tripsession/logging"
	"github.com/hupe1980/tripsession/session"
	"github.com/hupe1980/tripsession/status"
)

// ErrIngestionDisabled is returned by entry points the Manager was not configured for.
var ErrIngestionDisabled = errors.New("ingestion mode disabled")

// Ingestion selects the optional entry points. Plain text Ask and Reply are
// always available.
type Ingestion struct {
	// Structured enables AskStructured and ReplyStructured.
	Structured bool
	// Replay enables AppendTurn.
	Replay bool
}

// Options configures a Manager.
type Options struct {
	// Window is the maximum number of retained turns.
	Window int
	// Separator joins text blocks in DisplayText.
	Separator string
	// Ingestion toggles structured and replay entry points.
	Ingestion Ingestion
	// Labeler maps pending function calls to status labels.
	Labeler *status.Labeler
	// Store persists the session in Save and Load (defaults to in-memory).
	Store core.SessionStore
	// ID names the session in Store (defaults to a new UUID).
	ID string
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// PlannerPreset configures the structured web planner variant.
func PlannerPreset(o *Options) {
	o.Window = 10
	o.Ingestion = Ingestion{Structured: true}
}

// ReplayPreset configures the replaying chat variant.
func ReplayPreset(o *Options) {
	o.Window = 50
	o.Ingestion = Ingestion{Replay: true}
}

// Manager is safe for concurrent use; calls are serialized.
type Manager struct {
	mu      sync.Mutex
	opts    Options
	id      string
	session *core.Session
}

// New creates a Manager with an empty session.
func New(optFns ...func(o *Options)) (*Manager, error) {
	opts := Options{
		Window:    10,
		Separator: "\n",
		Labeler:   status.DefaultLabeler,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Labeler == nil {
		opts.Labeler = status.DefaultLabeler
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore()
	}

	s, err := core.NewSession(opts.Window, opts.sessionOptions)
	if err != nil {
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = session.NewID()
	}

	return &Manager{opts: opts, id: id, session: s}, nil
}

func (o Options) sessionOptions(so *core.SessionOptions) { so.Logger = o.Logger }

// ID returns the identifier used by Save and Load.
func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// Ask appends a user text turn.
func (m *Manager) Ask(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Ask(text)
}

// AskStructured appends a user turn parsed from a JSON part array. A
// malformed payload becomes an INVALID_RESPONSE text turn instead of an error.
func (m *Manager) AskStructured(payload []byte) error {
	if !m.opts.Ingestion.Structured {
		return fmt.Errorf("%w: structured ask", ErrIngestionDisabled)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.AskStructured(payload)
	return nil
}

// Reply appends a model text turn.
func (m *Manager) Reply(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Reply(text)
}

// ReplyStructured appends a model turn parsed from a JSON part array.
func (m *Manager) ReplyStructured(payload []byte) error {
	if !m.opts.Ingestion.Structured {
		return fmt.Errorf("%w: structured reply", ErrIngestionDisabled)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ReplyStructured(payload)
}

// AppendTurn replays one persisted turn.
func (m *Manager) AppendTurn(payload []byte) error {
	if !m.opts.Ingestion.Replay {
		return fmt.Errorf("%w: replay", ErrIngestionDisabled)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.AppendTurn(payload)
	return nil
}

// DisplayText returns the visible text of the most recent turn.
func (m *Manager) DisplayText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.DisplayText(m.opts.Separator)
}

// PendingLabels returns the status labels of the most recent turn.
func (m *Manager) PendingLabels() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Labeler.Pending(m.session)
}

// PendingLabelsJoined returns PendingLabels joined by status.Separator.
func (m *Manager) PendingLabelsJoined() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts.Labeler.PendingJoined(m.session)
}

// Serialize renders the session in its canonical JSON form.
func (m *Manager) Serialize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Serialize()
}

// Session returns an independent copy of the current session.
func (m *Manager) Session() *core.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// Save persists the session under ID().
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.opts.Store.Save(ctx, m.id, m.session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", m.id, err)
	}
	return nil
}

// Load replaces the current session with the one stored under id and makes
// id the Manager's ID. The stored window takes precedence over Options.Window.
func (m *Manager) Load(ctx context.Context, id string, optFns ...func(o *core.SessionOptions)) error {
	fns := append([]func(o *core.SessionOptions){m.opts.sessionOptions}, optFns...)
	s, err := m.opts.Store.Load(ctx, id, fns...)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.id = id
	return nil
}
