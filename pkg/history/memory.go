package history

import (
	"context"
	"sync"

	"github.com/srxprov/srxprov/pkg/provision"
)

// MemoryStore keeps outcomes in memory. Used in tests and as the daemon's
// fallback backend.
type MemoryStore struct {
	mu       sync.RWMutex
	outcomes []*provision.Outcome // append order, oldest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, outcome *provision.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, n int) ([]*provision.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.outcomes) {
		n = len(s.outcomes)
	}
	out := make([]*provision.Outcome, 0, n)
	for i := len(s.outcomes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.outcomes[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
