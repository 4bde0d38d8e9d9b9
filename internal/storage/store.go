package storage

import (
	"context"
	"sync"

	"github.com/callsight/insights/internal/types"
)

// Store is the read-side interface over the call record store. Records
// come back in their raw, ambiguously-encoded form; normalization is
// the records package's job.
type Store interface {
	ListRecords(ctx context.Context, filter types.RecordFilter) ([]types.RawCallRecord, error)
	SaveRecord(ctx context.Context, record types.RawCallRecord) error
}

// MemoryStore is an in-memory Store for development and tests
// (STORE_MODE=memory).
type MemoryStore struct {
	mu      sync.RWMutex
	records []types.RawCallRecord
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) SaveRecord(_ context.Context, record types.RawCallRecord) error {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListRecords(_ context.Context, filter types.RecordFilter) ([]types.RawCallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.RawCallRecord
	for _, r := range s.records {
		if filter.DateKey != "" && r.DateKey != filter.DateKey {
			continue
		}
		if filter.AgentID != "" && r.AgentID != filter.AgentID {
			continue
		}
		if filter.Disposition != "" && r.Disposition != filter.Disposition {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
