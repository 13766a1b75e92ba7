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

// chunkRepository implements driven.ChunkRepository over the chunks table.
type chunkRepository struct {
	store *Store
}

var _ driven.ChunkRepository = (*chunkRepository)(nil)

const chunkColumns = `doc_id, chunk_id, folder_id, content, embedding, checksum, source,
	file_name, mime_type, modified_time, revision, updated_at`

// BulkUpsert writes every chunk in one transaction. A failing row is
// skipped and reported; the others still apply.
func (r *chunkRepository) BulkUpsert(ctx context.Context, chunks []domain.ChunkRecord) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id, chunk_id) DO UPDATE SET
			folder_id = excluded.folder_id,
			content = excluded.content,
			embedding = excluded.embedding,
			checksum = excluded.checksum,
			source = excluded.source,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			modified_time = excluded.modified_time,
			revision = excluded.revision,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	var errs []error
	n := 0
	for _, c := range chunks {
		_, err := stmt.ExecContext(ctx, c.DocumentID, c.ChunkID, c.FolderID, c.Content,
			float32SliceToBytes(c.Embedding), c.Checksum, c.Source,
			c.Metadata.FileName, c.Metadata.MimeType, c.Metadata.ModifiedTime, c.Metadata.Revision, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("upserting %s/%s: %w", c.DocumentID, c.ChunkID, err))
			continue
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	return n, errors.Join(errs...)
}

// DeleteByRefs removes chunks by reference; wildcard refs remove whole documents.
func (r *chunkRepository) DeleteByRefs(ctx context.Context, refs []domain.ChunkRef) (int, error) {
	n := 0
	for _, ref := range refs {
		if !ref.Valid() {
			continue
		}
		var res sql.Result
		var err error
		if ref.IsWildcard() {
			res, err = r.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", ref.DocumentID)
		} else {
			res, err = r.store.db.ExecContext(ctx,
				"DELETE FROM chunks WHERE doc_id = ? AND chunk_id = ?", ref.DocumentID, ref.ChunkID)
		}
		if err != nil {
			return n, fmt.Errorf("deleting chunks of %s: %w", ref.DocumentID, err)
		}
		affected, _ := res.RowsAffected()
		n += int(affected)
	}
	return n, nil
}

// DeleteByFolder removes every chunk of folderID.
func (r *chunkRepository) DeleteByFolder(ctx context.Context, folderID string) (int, error) {
	res, err := r.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE folder_id = ?", folderID)
	if err != nil {
		return 0, fmt.Errorf("deleting folder chunks: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// ReplaceFolder deletes the folder's chunks then upserts chunks.
func (r *chunkRepository) ReplaceFolder(ctx context.Context, folderID string, chunks []domain.ChunkRecord) (domain.ReplaceStats, error) {
	deleted, err := r.DeleteByFolder(ctx, folderID)
	if err != nil {
		return domain.ReplaceStats{}, err
	}
	upserted, err := r.BulkUpsert(ctx, chunks)
	return domain.ReplaceStats{Deleted: deleted, Upserted: upserted}, err
}

// SearchSimilar loads every embedded chunk and ranks it in process.
func (r *chunkRepository) SearchSimilar(ctx context.Context, query []float32, topK int) ([]domain.ScoredChunk, error) {
	rows, err := r.store.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return domain.RankChunks(query, chunks, topK), nil
}

// Count returns the number of stored chunks.
func (r *chunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (r *chunkRepository) Close() error {
	return nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.ChunkRecord, error) {
	var c domain.ChunkRecord
	var embedding []byte
	var updatedAt string

	if err := rows.Scan(&c.DocumentID, &c.ChunkID, &c.FolderID, &c.Content, &embedding,
		&c.Checksum, &c.Source, &c.Metadata.FileName, &c.Metadata.MimeType,
		&c.Metadata.ModifiedTime, &c.Metadata.Revision, &updatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	c.Embedding = bytesToFloat32Slice(embedding)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}
