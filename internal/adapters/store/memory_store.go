package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-email-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the TriageStore interface
type MemoryStore struct {
	mu       sync.RWMutex
	taxonomy []core.RequestType
	results  []*core.TriageResult
	logger   *zap.Logger
}

// NewMemoryStore creates a new in-memory store seeded with the default
// taxonomy
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		taxonomy: DefaultTaxonomy(),
		logger:   logger,
	}
}

// ListRequestTypes returns the configured taxonomy
func (s *MemoryStore) ListRequestTypes(ctx context.Context) ([]core.RequestType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.RequestType, len(s.taxonomy))
	copy(out, s.taxonomy)
	return out, nil
}

// SaveResult stores a completed triage result
func (s *MemoryStore) SaveResult(ctx context.Context, result *core.TriageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)
	return nil
}

// RecentResults returns up to limit results, newest first
func (s *MemoryStore) RecentResults(ctx context.Context, limit int) ([]*core.TriageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.results) {
		limit = len(s.results)
	}

	out := make([]*core.TriageResult, 0, limit)
	for i := len(s.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

// Close releases any underlying resources
func (s *MemoryStore) Close() error {
	return nil
}
