package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

func TestObserveCycle(t *testing.T) {
	m := New()

	m.ObserveCycle(domain.SyncDelta, time.Second, &domain.CycleStats{
		ChunksUpserted: 3,
		ChunksDeleted:  2,
		FilesSkipped:   1,
	}, nil)
	m.ObserveCycle(domain.SyncDelta, time.Second, nil, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("delta", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("delta", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.chunksUpserted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chunksDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesSkipped))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)
}

func TestObserveReplaceAndRunning(t *testing.T) {
	m := New()

	m.ObserveReplace(domain.ReplaceStats{Deleted: 4, Upserted: 5})
	m.SetPollerRunning(true)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.chunksUpserted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.chunksDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollerRunning))

	m.SetPollerRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pollerRunning))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCycle(domain.SyncSnapshot, time.Second, nil, nil)
		m.ObserveReplace(domain.ReplaceStats{})
		m.SetPollerRunning(true)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCycle(domain.SyncSnapshot, 2*time.Second, &domain.CycleStats{}, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kbsync_poll_cycles_total{mode="snapshot",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/admin/gdrive/status", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/admin/gdrive/status", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.httpRequests))
}
