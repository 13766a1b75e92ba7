package domain

import "time"

// WatchState is the mutable configuration of one poller: the watched folder
// and the opaque continuation token. An empty ChangeToken means no sync has
// happened yet and the next cycle performs a full snapshot.
type WatchState struct {
	FolderID    string
	ChangeToken string
	UpdatedAt   time.Time
}

// HasToken reports whether an incremental sync can be attempted.
func (s WatchState) HasToken() bool {
	return s.ChangeToken != ""
}

// Configured reports whether a folder is set.
func (s WatchState) Configured() bool {
	return s.FolderID != ""
}

// PollerState is the lifecycle state of a change poller.
type PollerState string

const (
	// PollerIdle means no background loop is running.
	PollerIdle PollerState = "idle"
	// PollerRunning means the background loop is active.
	PollerRunning PollerState = "running"
)

// Default poller timings.
const (
	DefaultPollInterval = 300 * time.Second
	MinPollInterval     = 60 * time.Second
	DefaultStopTimeout  = time.Second
)

// NormalisePollInterval applies the default and the minimum floor.
func NormalisePollInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPollInterval
	}
	if d < MinPollInterval {
		return MinPollInterval
	}
	return d
}
