package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driving"
)

var _ driving.KnowledgeBase = (*mockKB)(nil)

type mockKB struct {
	hits      []domain.ScoredChunk
	searchErr error
	status    *domain.Status
	statusErr error
	lastTopK  int
	triggered int
}

func (m *mockKB) Register(context.Context, string) (*domain.Registration, error) { return nil, nil }
func (m *mockKB) Schedule(context.Context, string) (*domain.ScheduleResult, error) {
	return nil, nil
}
func (m *mockKB) Reindex(context.Context) (*domain.ReindexResult, error) { return nil, nil }
func (m *mockKB) Resume(context.Context) (bool, error)                   { return false, nil }
func (m *mockKB) Shutdown()                                              {}
func (m *mockKB) Trigger()                                               { m.triggered++ }

func (m *mockKB) Status(context.Context) (*domain.Status, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.status != nil {
		return m.status, nil
	}
	return &domain.Status{
		FolderID:        "F1",
		HasChangeToken:  true,
		State:           domain.PollerRunning,
		IntervalSeconds: 300,
		ChunkCount:      4,
		RecentCycles: []domain.CycleRecord{{
			FolderID: "F1",
			Mode:     domain.SyncDelta,
			Success:  true,
			EndedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}},
	}, nil
}

func (m *mockKB) Search(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.lastTopK = topK
	return m.hits, m.searchErr
}
