// Package metrics exposes Prometheus collectors for the ingestion pipeline.
// Metrics implements driven.PipelineMetrics.
//
// A nil *Metrics is valid and records nothing, so services can run without
// a registry in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.PipelineMetrics = (*Metrics)(nil)

const namespace = "kbsync"

// Metrics holds the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	chunksUpserted prometheus.Counter
	chunksDeleted  prometheus.Counter
	filesSkipped   prometheus.Counter
	pollerRunning  prometheus.Gauge
	lastSuccess    prometheus.Gauge
	httpRequests   *prometheus.HistogramVec
}

// New creates a registry with the pipeline collectors plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles run, by sync mode and outcome.",
		}, []string{"mode", "outcome"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"mode"}),
		chunksUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_upserted_total",
			Help:      "Chunks inserted or modified in the repository.",
		}),
		chunksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_deleted_total",
			Help:      "Chunks deleted from the repository.",
		}),
		filesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Files skipped because their content could not be extracted.",
		}),
		pollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 while the change poller loop is active.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_cycle_timestamp_seconds",
			Help:      "Unix time of the last successful poll cycle.",
		}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Admin API request duration, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.chunksUpserted,
		m.chunksDeleted,
		m.filesSkipped,
		m.pollerRunning,
		m.lastSuccess,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle records one poll cycle. stats may be nil on failure.
func (m *Metrics) ObserveCycle(mode domain.SyncMode, elapsed time.Duration, stats *domain.CycleStats, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.cycles.WithLabelValues(string(mode), outcome).Inc()
	m.cycleDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())

	if err != nil {
		return
	}
	m.lastSuccess.SetToCurrentTime()
	if stats != nil {
		m.chunksUpserted.Add(float64(stats.ChunksUpserted))
		m.chunksDeleted.Add(float64(stats.ChunksDeleted))
		m.filesSkipped.Add(float64(stats.FilesSkipped))
	}
}

// ObserveReplace records the chunk counts of a folder replacement.
func (m *Metrics) ObserveReplace(stats domain.ReplaceStats) {
	if m == nil {
		return
	}
	m.chunksUpserted.Add(float64(stats.Upserted))
	m.chunksDeleted.Add(float64(stats.Deleted))
}

// SetPollerRunning sets the poller gauge.
func (m *Metrics) SetPollerRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.pollerRunning.Set(1)
	} else {
		m.pollerRunning.Set(0)
	}
}

// ObserveRequest records one admin API request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
