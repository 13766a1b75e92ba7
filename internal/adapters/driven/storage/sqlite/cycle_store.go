package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// cycleStore implements driven.CycleStore.
type cycleStore struct {
	store *Store
}

var _ driven.CycleStore = (*cycleStore)(nil)

// RecordCycle logs one poll cycle outcome.
func (s *cycleStore) RecordCycle(ctx context.Context, record domain.CycleRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO poll_cycles (folder_id, mode, started_at, ended_at, success, error, chunks_upserted, chunks_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.FolderID, string(record.Mode),
		formatTime(record.StartedAt),
		formatTime(record.EndedAt),
		boolToInt(record.Success),
		nullString(record.Error),
		record.ChunksUpserted,
		record.ChunksDeleted)

	if err != nil {
		return fmt.Errorf("recording poll cycle: %w", err)
	}
	return nil
}

// RecentCycles returns the latest records, most recent first.
// A limit of zero or less returns every record.
func (s *cycleStore) RecentCycles(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT folder_id, mode, started_at, ended_at, success, error, chunks_upserted, chunks_deleted
		FROM poll_cycles
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying poll cycles: %w", err)
	}
	defer rows.Close()

	var records []domain.CycleRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating poll cycles: %w", err)
	}

	return records, nil
}

// PruneCycles keeps the most recent keep records.
func (s *cycleStore) PruneCycles(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM poll_cycles
		WHERE id NOT IN (
			SELECT id FROM poll_cycles ORDER BY started_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning poll cycles: %w", err)
	}
	return nil
}

// scanCycle scans a poll cycle from *sql.Rows.
func scanCycle(rows *sql.Rows) (*domain.CycleRecord, error) {
	var record domain.CycleRecord
	var mode, startedAt, endedAt string
	var success int
	var errMsg sql.NullString

	if err := rows.Scan(&record.FolderID, &mode, &startedAt, &endedAt,
		&success, &errMsg, &record.ChunksUpserted, &record.ChunksDeleted); err != nil {
		return nil, fmt.Errorf("scanning poll cycle: %w", err)
	}

	record.Mode = domain.SyncMode(mode)
	record.StartedAt = parseTime(startedAt)
	record.EndedAt = parseTime(endedAt)
	record.Success = success == 1
	if errMsg.Valid {
		record.Error = errMsg.String
	}

	return &record, nil
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
