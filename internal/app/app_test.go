package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbsync/internal/adapters/driven/embedding/hash"
	"github.com/custodia-labs/kbsync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/kbsync/internal/config"
	"github.com/custodia-labs/kbsync/internal/core/domain"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Source.Kind = config.SourceFilesystem
	cfg.Store.Backend = backend
	cfg.Store.DataDir = t.TempDir()
	cfg.Embedding.Provider = "hash"
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.StoreMemory))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "filesystem", a.Source.Name())
	assert.Equal(t, hash.ModelName, a.Embedder.ModelName())
	assert.Equal(t, domain.DefaultPollInterval, a.Poller.Interval())
}

func TestNew_SQLiteEndToEnd(t *testing.T) {
	cfg := testConfig(t, config.StoreSQLite)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	folder := t.TempDir()
	reg, err := a.KB.Register(context.Background(), folder)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, reg.Status)

	status, err := a.KB.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.ChunkCount)
	assert.Equal(t, domain.PollerIdle, status.State)
}

func TestNew_MongoUnreachable(t *testing.T) {
	cfg := testConfig(t, config.StoreMongo)
	cfg.Mongo.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.StoreSQLite))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestNew_UnknownEmbeddingProvider(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.Embedding.Provider = "opneai"

	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNew_OpenAIWithoutKeyUsesHash(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.Embedding.Provider = config.EmbeddingOpenAI
	cfg.Embedding.APIKey = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, hash.ModelName, a.Embedder.ModelName())
}

func TestNew_MissingServiceAccountKeepsAPIUp(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.Source.Kind = config.SourceDrive
	missing := filepath.Join(t.TempDir(), "client.json")
	cfg.Source.ServiceAccountFile = missing

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "gdrive", a.Source.Name())

	handler := httpapi.NewServer(a.KB).Handler()

	req := httptest.NewRequest(http.MethodPost, "/admin/gdrive", strings.NewReader(`{"folder_id":"folder-1"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["error"], "Service account file not found at "+missing)
	assert.False(t, a.Poller.Running())

	for _, path := range []string{"/healthz", "/admin/gdrive/status"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
