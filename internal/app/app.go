// Package app assembles the ingestion pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/kbsync/internal/adapters/driven/ai"
	"github.com/custodia-labs/kbsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbsync/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/kbsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kbsync/internal/config"
	"github.com/custodia-labs/kbsync/internal/connectors"
	"github.com/custodia-labs/kbsync/internal/connectors/google/drive"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/core/services"
	"github.com/custodia-labs/kbsync/internal/logger"
	"github.com/custodia-labs/kbsync/internal/metrics"
	"github.com/custodia-labs/kbsync/internal/normalisers"
	"github.com/custodia-labs/kbsync/internal/postprocessors/chunker"
)

// App holds the wired pipeline and the resources it must release.
type App struct {
	Config   *config.Config
	KB       *services.KnowledgeBase
	Poller   *services.ChangePoller
	Metrics  *metrics.Metrics
	Source   driven.DocumentSource
	Embedder driven.EmbeddingService

	closers []func() error
}

// Stores groups the persistence adapters chosen by the store backend.
type Stores struct {
	Chunks driven.ChunkRepository
	Watch  driven.WatchStateStore
	Cycles driven.CycleStore
}

// New builds every component named by cfg. On error, anything already
// opened is closed.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{Config: cfg, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	extractors := normalisers.NewDefaultRegistry()

	driveCfg := drive.DefaultConfig()
	driveCfg.PageSize = cfg.Source.PageSize
	a.Source, err = connectors.NewSource(ctx, connectors.SourceSettings{
		Kind:               cfg.Source.Kind,
		ServiceAccountFile: cfg.Source.ServiceAccountFile,
		Drive:              driveCfg,
	}, extractors)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}

	embed, err := ai.CreateAndValidateEmbeddingService(ctx, ai.EmbeddingSettings{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding service: %w", err)
	}
	a.Embedder = embed.EmbeddingService
	a.closers = append(a.closers, a.Embedder.Close)

	stores, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	splitter := chunker.New(chunker.WithChunkSize(cfg.Chunker.Size), chunker.WithOverlap(cfg.Chunker.Overlap))
	ingestor := services.NewIngestor(a.Source, stores.Chunks, a.Embedder, splitter,
		services.WithConcurrency(cfg.Source.IngestConcurrency))
	a.Poller = services.NewChangePoller(ingestor, stores.Watch, stores.Cycles,
		services.WithPollInterval(cfg.PollInterval()),
		services.WithMetrics(a.Metrics))
	a.KB = services.NewKnowledgeBase(services.KnowledgeBaseDeps{
		Ingestor: ingestor,
		Poller:   a.Poller,
		Repo:     stores.Chunks,
		Embedder: a.Embedder,
		Store:    stores.Watch,
		Cycles:   stores.Cycles,
		Metrics:  a.Metrics,
	})

	logger.Debug("Pipeline ready: source=%s store=%s embedding=%s", a.Source.Name(), cfg.Store.Backend, a.Embedder.ModelName())
	return a, nil
}

// openStores opens the chunk repository and watch-state stores. Watch state
// and cycle history live in SQLite unless the memory backend is selected.
func (a *App) openStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.Store.Backend == config.StoreMemory {
		watch := memory.NewWatchStateStore()
		return &Stores{Chunks: memory.NewChunkRepository(), Watch: watch, Cycles: watch}, nil
	}

	db, err := sqlite.NewStore(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	stores := &Stores{Watch: db.WatchStateStore(), Cycles: db.CycleStore()}

	switch cfg.Store.Backend {
	case config.StoreSQLite:
		stores.Chunks = db.ChunkRepository()
	default:
		repo, err := mongo.NewChunkRepository(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("open chunk repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		stores.Chunks = repo
	}
	return stores, nil
}

// Close stops the poller and releases resources in reverse order.
func (a *App) Close() error {
	if a.KB != nil {
		a.KB.Shutdown()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
