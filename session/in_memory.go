package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/tripsession/core"
)

type record struct {
	data []byte
	info core.SessionInfo
}

// InMemoryStore is a volatile SessionStore implementation storing serialized
// sessions in a process local map. It is safe for concurrent access and best
// suited for tests or ephemeral demo servers. Every Load decodes a fresh
// session so callers never share state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]record
	now      func() time.Time
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]record), now: time.Now}
}

// Save stores a snapshot of s under id, replacing any previous snapshot.
func (m *InMemoryStore) Save(ctx context.Context, id string, s *core.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrEmptyID
	}
	data, err := s.Serialize()
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	created := now
	if prev, ok := m.sessions[id]; ok {
		created = prev.info.CreatedAt
	}
	m.sessions[id] = record{
		data: data,
		info: core.SessionInfo{ID: id, Window: s.Window(), TurnCount: s.Len(), CreatedAt: created, UpdatedAt: now},
	}
	return nil
}

// Load decodes the session stored under id.
func (m *InMemoryStore) Load(ctx context.Context, id string, optFns ...func(o *core.SessionOptions)) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rec, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return core.Deserialize(rec.data, optFns...)
}

// Delete removes id. Deleting an unknown id returns ErrNotFound.
func (m *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns all stored sessions, most recently updated first.
func (m *InMemoryStore) List(ctx context.Context) ([]core.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	infos := make([]core.SessionInfo, 0, len(m.sessions))
	for _, rec := range m.sessions {
		infos = append(infos, rec.info)
	}
	m.mu.RUnlock()

	slices.SortFunc(infos, compareInfo)
	return infos, nil
}

func compareInfo(a, b core.SessionInfo) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
