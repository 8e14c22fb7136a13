package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"memory-duel-server/game"
	"memory-duel-server/playerrors"
)

// MemoryStore keeps entries as JSON blobs in process memory, so callers never
// share mutable state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, playerID string) (Entry, error) {
	m.mu.RLock()
	data, ok := m.entries[playerID]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, playerrors.ErrNoActiveGame
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode session for %s: %w: %v", playerID, game.ErrInvalidRecord, err)
	}
	return e, nil
}

func (m *MemoryStore) Save(_ context.Context, playerID string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode session for %s: %w", playerID, err)
	}
	m.mu.Lock()
	m.entries[playerID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, playerID string) error {
	m.mu.Lock()
	delete(m.entries, playerID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, data := range m.entries {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil || e.UpdatedAt.Before(cutoff) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
