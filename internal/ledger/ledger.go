package ledger

import (
	"context"
	"sync"
	"time"
)

// Ledger records one-shot deliveries. Claim returns true exactly once per key
// for as long as the claim is retained.
type Ledger interface {
	Claim(ctx context.Context, key string) (bool, error)
}

// Memory is a process-local ledger. Claims expire after ttl so the map does
// not grow without bound; a zero ttl keeps them forever.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	claims map[string]time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, claims: map[string]time.Time{}}
}

func (m *Memory) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if at, ok := m.claims[key]; ok && (m.ttl <= 0 || now.Sub(at) < m.ttl) {
		return false, nil
	}
	m.claims[key] = now
	m.pruneLocked(now)
	return true, nil
}

func (m *Memory) pruneLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for k, at := range m.claims {
		if now.Sub(at) >= m.ttl {
			delete(m.claims, k)
		}
	}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claims)
}
