package revocations

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is a process-local registry for single-instance deployments and tests
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryRegistry) Revoke(_ context.Context, token, _ string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Fingerprint(token)] = expiresAt
	return nil
}

func (m *MemoryRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.entries[Fingerprint(token)]
	return ok && exp.After(m.now()), nil
}

func (m *MemoryRegistry) Purge(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for fp, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, fp)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRegistry) Close() error { return nil }
