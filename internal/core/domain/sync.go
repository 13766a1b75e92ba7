package domain

import "time"

// SyncMode identifies which ingestion path a cycle took.
type SyncMode string

const (
	// SyncSnapshot is a full re-listing of the folder.
	SyncSnapshot SyncMode = "snapshot"
	// SyncDelta applies only the changes since the last token.
	SyncDelta SyncMode = "delta"
)

// Registration status values.
const (
	StatusQueued    = "QUEUED"
	StatusPolling   = "POLLING"
	StatusReindexed = "REINDEXED"
)

// SnapshotResult holds every chunk of a folder plus the token marking "now".
type SnapshotResult struct {
	Chunks    []ChunkRecord
	Files     int
	NextToken string
}

// CycleStats summarises one ingestion cycle.
type CycleStats struct {
	Mode            SyncMode
	FilesProcessed  int
	FilesSkipped    int
	ChunksUpserted  int
	ChunksDeleted   int
	DocumentsPruned int
}

// Registration is returned when a folder is registered.
type Registration struct {
	FolderID   string `json:"folder_id"`
	RequestID  string `json:"request_id"`
	Status     string `json:"status"`
	StartToken string `json:"start_page_token"`
}

// ScheduleResult is a registration that also started polling.
type ScheduleResult struct {
	Registration
	PollingIntervalSeconds int    `json:"polling_interval_seconds"`
	NextPollInSeconds      int    `json:"next_poll_in_seconds"`
	Note                   string `json:"note,omitempty"`
}

// ReindexResult reports a forced full resync of a folder.
type ReindexResult struct {
	FolderID         string    `json:"folder_id"`
	ChunksDiscovered int       `json:"chunks_discovered"`
	ChunksUpserted   int       `json:"chunks_upserted"`
	ChunksDeleted    int       `json:"chunks_deleted"`
	NextChangeToken  string    `json:"next_change_token"`
	ReindexedAt      time.Time `json:"reindexed_at"`
}

// CycleRecord is the persisted outcome of one poll cycle.
type CycleRecord struct {
	FolderID       string    `json:"folder_id"`
	Mode           SyncMode  `json:"mode"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	ChunksUpserted int       `json:"chunks_upserted"`
	ChunksDeleted  int       `json:"chunks_deleted"`
}

// Status describes the ingestion pipeline for operators.
type Status struct {
	FolderID        string        `json:"folder_id"`
	HasChangeToken  bool          `json:"has_change_token"`
	State           PollerState   `json:"state"`
	PollingInterval time.Duration `json:"-"`
	IntervalSeconds int           `json:"polling_interval_seconds"`
	ChunkCount      int           `json:"chunk_count"`
	RecentCycles    []CycleRecord `json:"recent_cycles,omitempty"`
}
