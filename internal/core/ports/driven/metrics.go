package driven

import (
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// PipelineMetrics receives ingestion measurements.
type PipelineMetrics interface {
	// ObserveCycle records one poll cycle. stats is nil when err is set.
	ObserveCycle(mode domain.SyncMode, elapsed time.Duration, stats *domain.CycleStats, err error)

	// ObserveReplace records a folder replacement.
	ObserveReplace(stats domain.ReplaceStats)

	// SetPollerRunning reports the poller lifecycle state.
	SetPollerRunning(running bool)
}
