// Package memo stores model outputs keyed by the exact prompt that produced
// them. Entries never expire.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
)

// Store is a persistent or in-memory output memo. Implementations are safe
// for concurrent use.
type Store interface {
	// Get returns the stored output for key.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key, replacing any existing entry.
	Put(ctx context.Context, key, value string) error
	// Name identifies the store in logs and health output.
	Name() string
	Close() error
}

// Key derives the memo key for a (system, user, choice) triple. Each field
// is prefixed with its length, so no two distinct triples share a key.
func Key(system, user, choice string) string {
	h := sha256.New()
	var n [8]byte
	for _, f := range []string{choice, system, user} {
		binary.BigEndian.PutUint64(n[:], uint64(len(f)))
		h.Write(n[:])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error { return nil }
