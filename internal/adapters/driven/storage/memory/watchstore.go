package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure WatchStateStore implements the interfaces.
var (
	_ driven.WatchStateStore = (*WatchStateStore)(nil)
	_ driven.CycleStore      = (*WatchStateStore)(nil)
)

// WatchStateStore is an in-memory implementation of driven.WatchStateStore
// and driven.CycleStore.
type WatchStateStore struct {
	mu     sync.RWMutex
	state  *domain.WatchState
	cycles []domain.CycleRecord
}

// NewWatchStateStore creates an empty in-memory watch state store.
func NewWatchStateStore() *WatchStateStore {
	return &WatchStateStore{}
}

// Load returns the saved state, or nil when nothing was saved.
func (s *WatchStateStore) Load(_ context.Context) (*domain.WatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, nil
	}
	state := *s.state
	return &state, nil
}

// Save replaces the stored state.
func (s *WatchStateStore) Save(_ context.Context, state domain.WatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = &state
	return nil
}

// RecordCycle appends a cycle record.
func (s *WatchStateStore) RecordCycle(_ context.Context, record domain.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles = append(s.cycles, record)
	return nil
}

// RecentCycles returns up to limit records, most recent first.
func (s *WatchStateStore) RecentCycles(_ context.Context, limit int) ([]domain.CycleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedLocked()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PruneCycles keeps the keep most recent records.
func (s *WatchStateStore) PruneCycles(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedLocked()
	if keep < 0 {
		keep = 0
	}
	if len(sorted) > keep {
		sorted = sorted[:keep]
	}
	s.cycles = sorted
	return nil
}

func (s *WatchStateStore) sortedLocked() []domain.CycleRecord {
	out := make([]domain.CycleRecord, len(s.cycles))
	copy(out, s.cycles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
