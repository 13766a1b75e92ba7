package drive

import (
	"fmt"

	"github.com/custodia-labs/kbsync/internal/connectors/google"
	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// Default configuration values.
const (
	DefaultPageSize        = 100
	DefaultMaxDownloadSize = 20 * 1024 * 1024
	maxPageSize            = 1000
)

// Config holds Google Drive source configuration.
type Config struct {
	// PageSize is the page size for list requests.
	PageSize int64
	// MaxDownloadSize skips files larger than this many bytes.
	MaxDownloadSize int64
	// RateLimit configures request pacing and 429 retries.
	RateLimit google.RateLimitConfig
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		PageSize:        DefaultPageSize,
		MaxDownloadSize: DefaultMaxDownloadSize,
		RateLimit:       google.DefaultRateLimit,
	}
}

// Validate fills zero values with defaults and rejects out-of-range ones.
func (c *Config) Validate() error {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("%w: drive page size must be between 1 and %d, got %d",
			domain.ErrConfiguration, maxPageSize, c.PageSize)
	}
	if c.MaxDownloadSize <= 0 {
		c.MaxDownloadSize = DefaultMaxDownloadSize
	}
	return nil
}
