package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// DefaultCycleHistory is how many cycle records are kept.
const DefaultCycleHistory = 100

// CycleRunner runs one ingestion cycle. *Ingestor implements it.
type CycleRunner interface {
	PollAndIngest(ctx context.Context, folderID, token string) (string, *domain.CycleStats, error)
}

// ChangePoller owns the watched folder and continuation token and runs one
// ingestion cycle per wake-up. Cycles never overlap: the loop waits, runs a
// cycle to completion, then waits again.
type ChangePoller struct {
	runner   CycleRunner
	store    driven.WatchStateStore
	cycles   driven.CycleStore
	metrics  driven.PipelineMetrics
	interval time.Duration
	stopWait time.Duration
	history  int

	mu      sync.Mutex
	current domain.WatchState
	// version changes on every Start so an in-flight cycle begun under an
	// older configuration cannot overwrite a newer token.
	version uint64
	// seq orders state changes so persistence never writes an older state
	// over a newer one.
	seq     uint64
	running bool
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}

	persistMu    sync.Mutex
	persistedSeq uint64
}

// PollerOption configures a ChangePoller.
type PollerOption func(*ChangePoller)

// WithPollInterval sets the wait between cycles. The default and the
// minimum floor from domain.NormalisePollInterval apply.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *ChangePoller) {
		p.interval = domain.NormalisePollInterval(d)
	}
}

// WithStopTimeout bounds how long Stop waits for the loop to exit.
func WithStopTimeout(d time.Duration) PollerOption {
	return func(p *ChangePoller) {
		if d > 0 {
			p.stopWait = d
		}
	}
}

// WithCycleHistory sets how many cycle records are retained.
func WithCycleHistory(n int) PollerOption {
	return func(p *ChangePoller) {
		if n > 0 {
			p.history = n
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m driven.PipelineMetrics) PollerOption {
	return func(p *ChangePoller) {
		p.metrics = m
	}
}

// NewChangePoller creates an idle poller. store and cycles may be nil.
func NewChangePoller(runner CycleRunner, store driven.WatchStateStore, cycles driven.CycleStore, opts ...PollerOption) *ChangePoller {
	p := &ChangePoller{
		runner:   runner,
		store:    store,
		cycles:   cycles,
		interval: domain.DefaultPollInterval,
		stopWait: domain.DefaultStopTimeout,
		history:  DefaultCycleHistory,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start sets the watched folder and token. An idle poller starts its loop
// and runs a first cycle immediately; a running poller keeps its loop and
// is woken so the next cycle uses the new configuration.
func (p *ChangePoller) Start(folderID, token string) {
	p.mu.Lock()
	p.current = domain.WatchState{FolderID: folderID, ChangeToken: token, UpdatedAt: time.Now()}
	p.version++
	p.seq++
	state, seq := p.current, p.seq

	if p.running {
		p.signalLocked()
		p.mu.Unlock()
		logger.Info("Reconfigured poller for folder %s", folderID)
		p.persist(state, seq)
		return
	}

	p.running = true
	p.wake = make(chan struct{}, 1)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.wake <- struct{}{}
	go p.run(p.wake, p.stop, p.done)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.SetPollerRunning(true)
	}
	logger.Info("Started poller for folder %s (interval=%s)", folderID, p.interval)
	p.persist(state, seq)
}

// Stop signals the loop to exit and waits up to the stop timeout. An
// in-flight cycle is not interrupted and may still be finishing when Stop
// returns. Safe to call when idle.
func (p *ChangePoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.SetPollerRunning(false)
	}

	select {
	case <-done:
	case <-time.After(p.stopWait):
		logger.Debug("Poller stop: cycle still finishing after %s", p.stopWait)
	}
}

// TriggerNow wakes a running loop. No-op when idle.
func (p *ChangePoller) TriggerNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.signalLocked()
	}
}

// Snapshot returns the current folder and token.
func (p *ChangePoller) Snapshot() domain.WatchState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Running reports whether the loop is active.
func (p *ChangePoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// State reports the lifecycle state.
func (p *ChangePoller) State() domain.PollerState {
	if p.Running() {
		return domain.PollerRunning
	}
	return domain.PollerIdle
}

// Interval returns the wait between cycles.
func (p *ChangePoller) Interval() time.Duration {
	return p.interval
}

// signalLocked performs a non-blocking send; a pending wake is enough.
func (p *ChangePoller) signalLocked() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *ChangePoller) run(wake <-chan struct{}, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-wake:
		case <-timer.C:
		}

		select {
		case <-stop:
			return
		default:
		}

		p.runCycle()
		timer.Reset(p.interval)
	}
}

// runCycle runs one ingestion against the configuration at wake time.
// Failures are logged; the token only advances on success.
func (p *ChangePoller) runCycle() {
	p.mu.Lock()
	state := p.current
	version := p.version
	p.mu.Unlock()

	if !state.Configured() {
		return
	}

	mode := domain.SyncDelta
	if !state.HasToken() {
		mode = domain.SyncSnapshot
	}

	started := time.Now()
	next, stats, err := p.runner.PollAndIngest(context.Background(), state.FolderID, state.ChangeToken)
	ended := time.Now()

	if p.metrics != nil {
		p.metrics.ObserveCycle(mode, ended.Sub(started), stats, err)
	}

	record := domain.CycleRecord{
		FolderID:  state.FolderID,
		Mode:      mode,
		StartedAt: started,
		EndedAt:   ended,
		Success:   err == nil,
	}
	if err != nil {
		record.Error = err.Error()
		logger.Warn("Poll cycle for folder %s failed: %v", state.FolderID, err)
	} else {
		if stats != nil {
			record.ChunksUpserted = stats.ChunksUpserted
			record.ChunksDeleted = stats.ChunksDeleted
		}
		p.commit(version, next)
	}
	p.record(record)
}

// commit stores next as the current token unless Start changed the
// configuration while the cycle ran.
func (p *ChangePoller) commit(version uint64, next string) {
	if next == "" {
		return
	}

	p.mu.Lock()
	if p.version != version {
		p.mu.Unlock()
		logger.Debug("Discarding token from cycle superseded by reconfiguration")
		return
	}
	p.current.ChangeToken = next
	p.current.UpdatedAt = time.Now()
	p.seq++
	state, seq := p.current, p.seq
	p.mu.Unlock()

	p.persist(state, seq)
}

// persist saves state best-effort, skipping states older than the last one saved.
func (p *ChangePoller) persist(state domain.WatchState, seq uint64) {
	if p.store == nil {
		return
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	if seq <= p.persistedSeq {
		return
	}
	if err := p.store.Save(context.Background(), state); err != nil {
		logger.Warn("Failed to persist watch state for %s: %v", state.FolderID, err)
		return
	}
	p.persistedSeq = seq
}

func (p *ChangePoller) record(rec domain.CycleRecord) {
	if p.cycles == nil {
		return
	}
	ctx := context.Background()
	if err := p.cycles.RecordCycle(ctx, rec); err != nil {
		logger.Warn("Failed to record poll cycle: %v", err)
		return
	}
	if err := p.cycles.PruneCycles(ctx, p.history); err != nil {
		logger.Warn("Failed to prune poll cycle history: %v", err)
	}
}
