package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// watchStateStore implements driven.WatchStateStore as a single-row table.
type watchStateStore struct {
	store *Store
}

var _ driven.WatchStateStore = (*watchStateStore)(nil)

// Load returns the saved state, or nil and no error when none exists.
func (s *watchStateStore) Load(ctx context.Context) (*domain.WatchState, error) {
	var state domain.WatchState
	var updatedAt string

	err := s.store.db.QueryRowContext(ctx, `
		SELECT folder_id, change_token, updated_at FROM watch_state WHERE id = 1
	`).Scan(&state.FolderID, &state.ChangeToken, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading watch state: %w", err)
	}

	state.UpdatedAt = parseTime(updatedAt)
	return &state, nil
}

// Save replaces the stored state.
func (s *watchStateStore) Save(ctx context.Context, state domain.WatchState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO watch_state (id, folder_id, change_token, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			folder_id = excluded.folder_id,
			change_token = excluded.change_token,
			updated_at = excluded.updated_at
	`, state.FolderID, state.ChangeToken, formatTime(state.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving watch state: %w", err)
	}
	return nil
}

// timeLayout has fixed-width fractional seconds so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime returns the zero time for unparseable values.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
