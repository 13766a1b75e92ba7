package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// Ensure KnowledgeBase implements the interface.
var _ driving.KnowledgeBase = (*KnowledgeBase)(nil)

// recentCycleLimit is how many cycle records Status reports.
const recentCycleLimit = 10

// KnowledgeBase is the admin surface over the ingestor and poller.
type KnowledgeBase struct {
	ingestor *Ingestor
	poller   *ChangePoller
	repo     driven.ChunkRepository
	embedder driven.EmbeddingService
	store    driven.WatchStateStore
	cycles   driven.CycleStore
	metrics  driven.PipelineMetrics
}

// KnowledgeBaseDeps groups the collaborators of a KnowledgeBase.
// Store, Cycles and Metrics may be nil.
type KnowledgeBaseDeps struct {
	Ingestor *Ingestor
	Poller   *ChangePoller
	Repo     driven.ChunkRepository
	Embedder driven.EmbeddingService
	Store    driven.WatchStateStore
	Cycles   driven.CycleStore
	Metrics  driven.PipelineMetrics
}

// NewKnowledgeBase creates the service.
func NewKnowledgeBase(deps KnowledgeBaseDeps) *KnowledgeBase {
	return &KnowledgeBase{
		ingestor: deps.Ingestor,
		poller:   deps.Poller,
		repo:     deps.Repo,
		embedder: deps.Embedder,
		store:    deps.Store,
		cycles:   deps.Cycles,
		metrics:  deps.Metrics,
	}
}

// Register validates the folder and returns its start token.
func (kb *KnowledgeBase) Register(ctx context.Context, folderID string) (*domain.Registration, error) {
	return kb.ingestor.Register(ctx, strings.TrimSpace(folderID))
}

// Schedule registers the folder and starts polling with no token, so the
// first cycle snapshots the folder's existing content.
func (kb *KnowledgeBase) Schedule(ctx context.Context, folderID string) (*domain.ScheduleResult, error) {
	reg, err := kb.Register(ctx, folderID)
	if err != nil {
		return nil, err
	}

	kb.poller.Start(reg.FolderID, "")

	interval := int(kb.poller.Interval().Seconds())
	reg.Status = domain.StatusPolling
	return &domain.ScheduleResult{
		Registration:           *reg,
		PollingIntervalSeconds: interval,
		NextPollInSeconds:      interval,
		Note:                   fmt.Sprintf("next_poll_in_seconds normalized to %d.", interval),
	}, nil
}

// Reindex stops the poller, replaces every chunk of the watched folder from
// a fresh snapshot and restarts the poller. On failure the poller resumes
// with its previous token and the error is returned.
func (kb *KnowledgeBase) Reindex(ctx context.Context) (*domain.ReindexResult, error) {
	state, err := kb.watchState(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Configured() {
		return nil, domain.ErrNoFolderConfigured
	}

	previous := state.ChangeToken
	kb.poller.Stop()

	result, err := kb.ingestor.Reindex(ctx, state.FolderID)
	if err != nil {
		logger.Warn("Reindex of %s failed, resuming with previous token: %v", state.FolderID, err)
		kb.poller.Start(state.FolderID, previous)
		return nil, err
	}

	next := result.NextChangeToken
	if next == "" {
		next = previous
	}
	kb.poller.Start(state.FolderID, next)

	if kb.metrics != nil {
		kb.metrics.ObserveReplace(domain.ReplaceStats{Deleted: result.ChunksDeleted, Upserted: result.ChunksUpserted})
	}
	logger.Info("Reindexed folder %s: %d chunks discovered, %d upserted, %d deleted",
		state.FolderID, result.ChunksDiscovered, result.ChunksUpserted, result.ChunksDeleted)
	return result, nil
}

// Status reports the watched folder, poller state, chunk count and
// recent cycles.
func (kb *KnowledgeBase) Status(ctx context.Context) (*domain.Status, error) {
	state, err := kb.watchState(ctx)
	if err != nil {
		return nil, err
	}

	count, err := kb.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	status := &domain.Status{
		FolderID:        state.FolderID,
		HasChangeToken:  state.HasToken(),
		State:           kb.poller.State(),
		PollingInterval: kb.poller.Interval(),
		IntervalSeconds: int(kb.poller.Interval().Seconds()),
		ChunkCount:      count,
	}

	if kb.cycles != nil {
		recent, err := kb.cycles.RecentCycles(ctx, recentCycleLimit)
		if err != nil {
			logger.Warn("Failed to load recent poll cycles: %v", err)
		}
		status.RecentCycles = recent
	}
	return status, nil
}

// Trigger wakes the poller.
func (kb *KnowledgeBase) Trigger() {
	kb.poller.TriggerNow()
}

// Resume starts polling from the persisted watch state.
func (kb *KnowledgeBase) Resume(ctx context.Context) (bool, error) {
	if kb.store == nil {
		return false, nil
	}
	state, err := kb.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load watch state: %w", err)
	}
	if state == nil || !state.Configured() {
		return false, nil
	}
	kb.poller.Start(state.FolderID, state.ChangeToken)
	return true, nil
}

// Shutdown stops the poller.
func (kb *KnowledgeBase) Shutdown() {
	kb.poller.Stop()
}

// Search embeds query and returns the most similar chunks.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if kb.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := kb.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return kb.repo.SearchSimilar(ctx, vec, domain.NormaliseTopK(topK))
}

// watchState returns the poller's state, falling back to the persisted
// copy when the poller has never been started in this process.
func (kb *KnowledgeBase) watchState(ctx context.Context) (domain.WatchState, error) {
	state := kb.poller.Snapshot()
	if state.Configured() || kb.store == nil {
		return state, nil
	}
	persisted, err := kb.store.Load(ctx)
	if err != nil {
		return domain.WatchState{}, fmt.Errorf("load watch state: %w", err)
	}
	if persisted == nil {
		return state, nil
	}
	return *persisted, nil
}
