package driven

import (
	"context"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// WatchStateStore persists the watched folder and continuation token so
// polling survives process restarts. It is the source of truth across
// restarts; the poller owns the in-memory copy while running.
type WatchStateStore interface {
	// Load returns the persisted state, or nil and no error when none exists.
	Load(ctx context.Context) (*domain.WatchState, error)

	// Save stores the state, replacing any previous value.
	Save(ctx context.Context, state domain.WatchState) error
}

// CycleStore records poll cycle outcomes.
type CycleStore interface {
	// RecordCycle logs one cycle outcome.
	RecordCycle(ctx context.Context, record domain.CycleRecord) error

	// RecentCycles returns the latest records, most recent first.
	RecentCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error)

	// PruneCycles keeps only the most recent keep records.
	PruneCycles(ctx context.Context, keep int) error
}
