// Package config loads kbsync settings.
//
// Values are layered: built-in defaults, then an optional TOML file, then a
// .env file, then process environment. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Source kinds.
const (
	SourceDrive      = "gdrive"
	SourceFilesystem = "filesystem"
)

// Embedding providers. Empty selects the hash fallback.
const (
	EmbeddingHash   = "hash"
	EmbeddingOpenAI = "openai"
	EmbeddingOllama = "ollama"
)

// DefaultConfigFile is looked up under the data directory when no path is given.
const DefaultConfigFile = "config.toml"

// Config is the full process configuration.
type Config struct {
	Source    SourceConfig    `toml:"source" envconfig:"SOURCE"`
	Store     StoreConfig     `toml:"store" envconfig:"STORE"`
	Mongo     MongoConfig     `toml:"mongo" envconfig:"MONGO"`
	Embedding EmbeddingConfig `toml:"embedding" envconfig:"EMBEDDING"`
	Chunker   ChunkerConfig   `toml:"chunker" envconfig:"CHUNKER"`
	HTTP      HTTPConfig      `toml:"http" envconfig:"HTTP"`
	Log       LogConfig       `toml:"log" envconfig:"LOG"`
}

// SourceConfig selects and tunes the document source and poller.
type SourceConfig struct {
	Kind                string `toml:"kind" envconfig:"KBSYNC_SOURCE"`
	ServiceAccountFile  string `toml:"service_account_file" envconfig:"GDRIVE_SERVICE_ACCOUNT_FILE"`
	PageSize            int64  `toml:"page_size" envconfig:"GDRIVE_PAGE_SIZE"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds" envconfig:"GDRIVE_POLL_INTERVAL"`
	IngestConcurrency   int    `toml:"ingest_concurrency" envconfig:"KBSYNC_INGEST_CONCURRENCY"`
	// Watch enables filesystem notifications for the filesystem source.
	Watch bool `toml:"watch" envconfig:"KBSYNC_WATCH"`
}

// StoreConfig selects where chunks and watch state live.
type StoreConfig struct {
	Backend string `toml:"backend" envconfig:"KBSYNC_STORE"`
	DataDir string `toml:"data_dir" envconfig:"KBSYNC_DATA_DIR"`
}

// MongoConfig configures the Mongo chunk repository.
type MongoConfig struct {
	URI        string `toml:"uri" envconfig:"MONGODB_URI"`
	Database   string `toml:"database" envconfig:"MONGODB_DB"`
	Collection string `toml:"collection" envconfig:"MONGODB_KB_COLLECTION"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider" envconfig:"EMBEDDING_PROVIDER"`
	Model      string `toml:"model" envconfig:"OPENAI_EMBEDDING_MODEL"`
	APIKey     string `toml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL    string `toml:"base_url" envconfig:"EMBEDDING_BASE_URL"`
	Dimensions int    `toml:"dimensions" envconfig:"EMBEDDING_DIMENSIONS"`
}

// ChunkerConfig sizes chunk windows, in characters.
type ChunkerConfig struct {
	Size    int `toml:"size" envconfig:"KBSYNC_CHUNK_SIZE"`
	Overlap int `toml:"overlap" envconfig:"KBSYNC_CHUNK_OVERLAP"`
}

// HTTPConfig configures the admin API.
type HTTPConfig struct {
	Addr           string `toml:"addr" envconfig:"KBSYNC_HTTP_ADDR"`
	RequestTimeout int    `toml:"request_timeout_seconds" envconfig:"KBSYNC_HTTP_TIMEOUT"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `toml:"level" envconfig:"KBSYNC_LOG_LEVEL"`
	JSON  bool   `toml:"json" envconfig:"KBSYNC_LOG_JSON"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:                SourceDrive,
			ServiceAccountFile:  "client.json",
			PageSize:            100,
			PollIntervalSeconds: int(domain.DefaultPollInterval.Seconds()),
			IngestConcurrency:   4,
		},
		Store: StoreConfig{
			Backend: StoreMongo,
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "kbsync",
			Collection: "kb_chunks",
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Chunker: ChunkerConfig{
			Size:    800,
			Overlap: 100,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			RequestTimeout: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path names a TOML file; when empty,
// <data dir>/config.toml is used if it exists. A .env file in the working
// directory is applied without overriding variables already set.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(DefaultDataDir(), DefaultConfigFile)
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// Missing .env is normal; variables may come from the shell.
	_ = godotenv.Load(".env")

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}
	return nil
}

// Validate normalises values and rejects unusable ones.
func (c *Config) Validate() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = SourceDrive
	}
	switch c.Source.Kind {
	case SourceDrive, SourceFilesystem:
	default:
		return fmt.Errorf("%w: unknown source kind %q", domain.ErrConfiguration, c.Source.Kind)
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required for the mongo store", domain.ErrConfiguration)
		}
	case StoreMemory, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, c.Store.Backend)
	}

	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	switch c.Embedding.Provider {
	case "", EmbeddingHash, EmbeddingOpenAI, EmbeddingOllama:
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, c.Embedding.Provider)
	}

	if c.Source.IngestConcurrency < 1 {
		c.Source.IngestConcurrency = 1
	}
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", domain.ErrConfiguration)
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative", domain.ErrConfiguration)
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 300
	}
	return nil
}

// PollInterval returns the poll interval with the default and floor applied.
func (c *Config) PollInterval() time.Duration {
	return domain.NormalisePollInterval(time.Duration(c.Source.PollIntervalSeconds) * time.Second)
}

// RequestTimeout returns the HTTP handler timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.RequestTimeout) * time.Second
}

// DataDir returns the configured data directory or the default.
func (c *Config) DataDir() string {
	if c.Store.DataDir != "" {
		return c.Store.DataDir
	}
	return DefaultDataDir()
}

// DefaultDataDir returns ~/.kbsync, or .kbsync when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kbsync"
	}
	return filepath.Join(home, ".kbsync")
}
