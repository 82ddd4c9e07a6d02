package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("wizard session not found")

// Store persists wizard states by session id. Load reports ErrNotFound for
// missing and expired sessions alike.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type memoryEntry struct {
	state     []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded states in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok || !e.expiresAt.After(m.now()) {
		return State{}, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(e.state, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st State, expiresAt time.Time) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[id] = memoryEntry{state: raw, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if !e.expiresAt.After(now) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}
