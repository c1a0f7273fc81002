package storage

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory KV implementation used by tests and
// ephemeral environments. Documents go through the same JSON round trip
// as the SQLite backend so serialization bugs surface under test.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Save serializes value as JSON and stores it under key.
func (m *MemoryStore) Save(ctx context.Context, key string, value any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if value == nil {
		return ErrNilValue
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Op: "save", Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

// Load reads the document under key into dest.
func (m *MemoryStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateKey(key); err != nil {
		return false, err
	}
	if dest == nil {
		return false, ErrNilDest
	}

	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, &PersistenceError{Op: "load", Key: key, Err: err}
	}
	return true, nil
}
