package driving

import (
	"context"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// KnowledgeBase is the admin-facing surface of the ingestion pipeline.
type KnowledgeBase interface {
	// Register validates the folder and obtains an initial continuation
	// token. It does not start polling.
	Register(ctx context.Context, folderID string) (*domain.Registration, error)

	// Schedule registers the folder and starts the poller.
	Schedule(ctx context.Context, folderID string) (*domain.ScheduleResult, error)

	// Reindex forces a full snapshot resync of the watched folder.
	Reindex(ctx context.Context) (*domain.ReindexResult, error)

	// Status reports the watched folder, token presence and poller state.
	Status(ctx context.Context) (*domain.Status, error)

	// Trigger wakes the poller immediately. No-op when idle.
	Trigger()

	// Resume restarts polling from the persisted watch state. It reports
	// false when nothing was persisted.
	Resume(ctx context.Context) (bool, error)

	// Shutdown stops the poller.
	Shutdown()

	// Search returns the chunks most similar to query.
	Search(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}
