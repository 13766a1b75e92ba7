// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	hashembed "github.com/custodia-labs/kbsync/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/custodia-labs/kbsync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/kbsync/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/kbsync/internal/core/domain"
	"github.com/custodia-labs/kbsync/internal/core/ports/driven"
	"github.com/custodia-labs/kbsync/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Supported embedding providers.
const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// EmbeddingSettings selects and configures an embedding provider.
type EmbeddingSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// IsLive reports whether the settings select a usable live provider.
// OpenAI without an API key is treated as unconfigured.
func (s EmbeddingSettings) IsLive() bool {
	switch strings.ToLower(s.Provider) {
	case ProviderOllama:
		return true
	case ProviderOpenAI:
		return s.APIKey != ""
	default:
		return false
	}
}

// Known reports whether the provider name is supported. Empty is allowed
// and selects the hash fallback.
func Known(provider string) bool {
	switch strings.ToLower(provider) {
	case "", ProviderHash, ProviderOpenAI, ProviderOllama:
		return true
	default:
		return false
	}
}

// InitResult contains the result of embedding service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Warnings         []string // Non-fatal issues found during initialisation.
	FellBack         bool     // True if no live provider is configured.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
}

// CreateEmbeddingService creates the embedding service named by settings.
// An empty provider or "hash" yields the deterministic fallback.
func CreateEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	switch strings.ToLower(settings.Provider) {
	case "", ProviderHash:
		return hashembed.NewEmbeddingService(), nil

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates the configured embedding
// service. The hash fallback is used only when no live provider is
// configured. A live provider that fails its connectivity check is still
// returned: calls fail until it recovers, and the failing cycles are retried.
// An unknown provider is a configuration error.
func CreateAndValidateEmbeddingService(ctx context.Context, settings EmbeddingSettings) (*InitResult, error) {
	if !Known(settings.Provider) {
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrConfiguration, settings.Provider)
	}

	result := &InitResult{}
	if !settings.IsLive() {
		if strings.EqualFold(settings.Provider, ProviderOpenAI) {
			result.Warnings = append(result.Warnings, "openai selected but OPENAI_API_KEY is not set")
		}
		return fallback(result), nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s not reachable yet: %v", svc.ModelName(), err))
		logger.Warn("embedding: %s not reachable yet, cycles will retry: %v", svc.ModelName(), err)
	}

	result.EmbeddingService = svc
	return result, nil
}

func fallback(result *InitResult) *InitResult {
	result.EmbeddingService = hashembed.NewEmbeddingService()
	result.FellBack = true
	logger.Warn("using hash embedding fallback; search results will not be semantic")
	for _, w := range result.Warnings {
		logger.Warn("embedding: %s", w)
	}
	return result
}
