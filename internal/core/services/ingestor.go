package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// DefaultIngestConcurrency bounds parallel downloads within one cycle.
const DefaultIngestConcurrency = 4

// Ingestor turns folder listings and change sets into chunk repository
// writes. It holds no state between calls.
type Ingestor struct {
	source      driven.DocumentSource
	repo        driven.ChunkRepository
	embedder    driven.EmbeddingService
	splitter    driven.TextSplitter
	concurrency int
	now         func() time.Time
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithConcurrency sets how many files are downloaded and embedded at once.
// Values below 1 are ignored.
func WithConcurrency(n int) IngestorOption {
	return func(i *Ingestor) {
		if n >= 1 {
			i.concurrency = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) IngestorOption {
	return func(i *Ingestor) {
		i.now = now
	}
}

// NewIngestor creates an ingestor over the given collaborators.
func NewIngestor(
	source driven.DocumentSource,
	repo driven.ChunkRepository,
	embedder driven.EmbeddingService,
	splitter driven.TextSplitter,
	opts ...IngestorOption,
) *Ingestor {
	i := &Ingestor{
		source:      source,
		repo:        repo,
		embedder:    embedder,
		splitter:    splitter,
		concurrency: DefaultIngestConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Register validates the folder and obtains an initial continuation token.
// It does not ingest anything.
func (i *Ingestor) Register(ctx context.Context, folderID string) (*domain.Registration, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, domain.ErrFolderRequired
	}
	if err := i.source.ValidateFolder(ctx, folderID); err != nil {
		return nil, err
	}
	token, err := i.source.StartToken(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("get start token: %w", err)
	}

	reg := &domain.Registration{
		FolderID:   folderID,
		RequestID:  uuid.NewString(),
		Status:     domain.StatusQueued,
		StartToken: token,
	}
	logger.Info("Registered folder %s via request %s", folderID, reg.RequestID)
	return reg, nil
}

// Snapshot lists, downloads, chunks and embeds every file in the folder.
// The token is taken before listing so changes made during the snapshot are
// delivered again by the next delta rather than lost.
func (i *Ingestor) Snapshot(ctx context.Context, folderID string) (*domain.SnapshotResult, error) {
	if folderID == "" {
		return nil, domain.ErrFolderRequired
	}

	token, err := i.source.StartToken(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("get start token: %w", err)
	}

	files, err := i.source.ListFolderFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list folder files: %w", err)
	}

	perFile, err := i.buildChunks(ctx, folderID, files)
	if err != nil {
		return nil, err
	}

	result := &domain.SnapshotResult{Files: len(files), NextToken: token}
	for _, chunks := range perFile {
		result.Chunks = append(result.Chunks, chunks...)
	}
	return result, nil
}

// PollAndIngest runs one ingestion cycle. An empty token takes the snapshot
// path and upserts every chunk; otherwise only the changes since token are
// applied. The returned token is the one to use next; on error it is empty
// and nothing should be persisted.
func (i *Ingestor) PollAndIngest(ctx context.Context, folderID, token string) (string, *domain.CycleStats, error) {
	if folderID == "" {
		return "", nil, domain.ErrFolderRequired
	}
	if token == "" {
		return i.snapshotCycle(ctx, folderID)
	}
	return i.deltaCycle(ctx, folderID, token)
}

func (i *Ingestor) snapshotCycle(ctx context.Context, folderID string) (string, *domain.CycleStats, error) {
	snap, err := i.Snapshot(ctx, folderID)
	if err != nil {
		return "", nil, err
	}

	upserted, err := i.repo.BulkUpsert(ctx, snap.Chunks)
	if err != nil {
		return "", nil, fmt.Errorf("upsert snapshot chunks: %w", err)
	}

	stats := &domain.CycleStats{
		Mode:           domain.SyncSnapshot,
		FilesProcessed: snap.Files,
		ChunksUpserted: upserted,
	}
	stats.FilesSkipped = snap.Files - countDocuments(snap.Chunks)
	logger.Debug("Snapshot of %s: %d files, %d chunks upserted", folderID, snap.Files, upserted)
	return snap.NextToken, stats, nil
}

// deltaCycle applies one change listing. Updated documents that produced
// chunks are wiped before the new chunks are written so a shorter revision
// leaves no stale tail. Updated documents without content are left alone.
func (i *Ingestor) deltaCycle(ctx context.Context, folderID, token string) (string, *domain.CycleStats, error) {
	changes, err := i.source.ListChangesSince(ctx, folderID, token)
	if err != nil {
		return "", nil, fmt.Errorf("list changes: %w", err)
	}

	perFile, err := i.buildChunks(ctx, folderID, changes.Updated)
	if err != nil {
		return "", nil, err
	}

	var upserts []domain.ChunkRecord
	var refs []domain.ChunkRef
	seen := make(map[string]bool)
	addRef := func(docID string) {
		if docID == "" || seen[docID] {
			return
		}
		seen[docID] = true
		refs = append(refs, domain.DocumentRef(docID))
	}

	stats := &domain.CycleStats{Mode: domain.SyncDelta, FilesProcessed: len(changes.Updated)}
	for idx, chunks := range perFile {
		if len(chunks) == 0 {
			stats.FilesSkipped++
			continue
		}
		addRef(changes.Updated[idx].ID)
		upserts = append(upserts, chunks...)
	}
	for _, docID := range changes.Removed {
		addRef(docID)
	}
	stats.DocumentsPruned = len(changes.Removed)

	if len(refs) > 0 {
		deleted, err := i.repo.DeleteByRefs(ctx, refs)
		if err != nil {
			return "", nil, fmt.Errorf("delete chunks: %w", err)
		}
		stats.ChunksDeleted = deleted
	}
	if len(upserts) > 0 {
		upserted, err := i.repo.BulkUpsert(ctx, upserts)
		if err != nil {
			return "", nil, fmt.Errorf("upsert chunks: %w", err)
		}
		stats.ChunksUpserted = upserted
	}

	next := changes.NextToken
	if next == "" {
		next = token
	}
	if !changes.Empty() {
		logger.Debug("Delta for %s: %d updated, %d removed, %d upserted, %d deleted",
			folderID, len(changes.Updated), len(changes.Removed), stats.ChunksUpserted, stats.ChunksDeleted)
	}
	return next, stats, nil
}

// Reindex snapshots the folder and replaces all of its chunks.
func (i *Ingestor) Reindex(ctx context.Context, folderID string) (*domain.ReindexResult, error) {
	if folderID == "" {
		return nil, domain.ErrFolderRequired
	}

	snap, err := i.Snapshot(ctx, folderID)
	if err != nil {
		return nil, err
	}

	stats, err := i.repo.ReplaceFolder(ctx, folderID, snap.Chunks)
	if err != nil {
		return nil, fmt.Errorf("replace folder chunks: %w", err)
	}

	return &domain.ReindexResult{
		FolderID:         folderID,
		ChunksDiscovered: len(snap.Chunks),
		ChunksUpserted:   stats.Upserted,
		ChunksDeleted:    stats.Deleted,
		NextChangeToken:  snap.NextToken,
		ReindexedAt:      i.now().UTC(),
	}, nil
}

// buildChunks produces the chunk records of each file, index-aligned with
// files. Files are processed concurrently; any error aborts the batch.
func (i *Ingestor) buildChunks(ctx context.Context, folderID string, files []domain.FileDescriptor) ([][]domain.ChunkRecord, error) {
	results := make([][]domain.ChunkRecord, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx := range files {
		file := files[idx]
		g.Go(func() error {
			chunks, err := i.chunkFile(gctx, folderID, file)
			if err != nil {
				return err
			}
			results[idx] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkFile downloads, splits and embeds one file. Files without
// extractable text yield no chunks.
func (i *Ingestor) chunkFile(ctx context.Context, folderID string, file domain.FileDescriptor) ([]domain.ChunkRecord, error) {
	if file.ID == "" {
		return nil, nil
	}

	text, ok, err := i.source.DownloadContent(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", file.ID, err)
	}
	if !ok {
		logger.Debug("No extractable content for %s (%s)", file.ID, file.MimeType)
		return nil, nil
	}

	pieces := i.splitter.Split(text)
	if len(pieces) == 0 {
		return nil, nil
	}

	vectors, err := i.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", file.ID, err)
	}
	if len(vectors) != len(pieces) {
		return nil, fmt.Errorf("embed %s: got %d vectors for %d chunks", file.ID, len(vectors), len(pieces))
	}

	meta := file.Metadata()
	records := make([]domain.ChunkRecord, len(pieces))
	for n, piece := range pieces {
		records[n] = domain.ChunkRecord{
			FolderID:   folderID,
			DocumentID: file.ID,
			ChunkID:    domain.ChunkID(n + 1),
			Content:    piece,
			Embedding:  vectors[n],
			Metadata:   meta,
			Checksum:   file.Checksum,
			Source:     file.Name,
		}
	}
	return records, nil
}

func countDocuments(chunks []domain.ChunkRecord) int {
	docs := make(map[string]struct{})
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
	}
	return len(docs)
}
