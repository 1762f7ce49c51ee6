// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ansa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ansa-cli/internal/adapters/driven/embedding/openai"
	ollamagen "github.com/custodia-labs/ansa-cli/internal/adapters/driven/generation/ollama"
	openaigen "github.com/custodia-labs/ansa-cli/internal/adapters/driven/generation/openai"
	"github.com/custodia-labs/ansa-cli/internal/adapters/driven/rerank/tei"
	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the appropriate embedding service based on
// settings. Returns nil if the provider is not configured. The dimensions
// argument is the resolved vector size for the index; the settings layer
// already reconciles explicit overrides with model defaults.
func CreateEmbeddingService(settings domain.EmbeddingSettings, dimensions int) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q",
			domain.ErrConfiguration, settings.Provider)
	}
}

// CreateGenerationService creates the appropriate generation service based on
// settings. Returns nil if the provider is not configured.
func CreateGenerationService(settings domain.GenerationSettings) (driven.GenerationService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamagen.NewGenerationService(ollamagen.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaigen.NewGenerationService(openaigen.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider %q",
			domain.ErrConfiguration, settings.Provider)
	}
}

// CreateReranker creates the cross-encoder reranker when one is enabled.
// Returns nil when reranking is disabled; the pipeline then orders by
// similarity without flagging degradation.
func CreateReranker(settings domain.RerankerSettings) driven.Reranker {
	if !settings.Enabled {
		return nil
	}
	return tei.NewReranker(tei.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a
// service and pinging it. Intended for configuration-time checks.
func ValidateEmbeddingConfig(settings domain.EmbeddingSettings, dimensions int) error {
	svc, err := CreateEmbeddingService(settings, dimensions)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateGenerationConfig validates a generation configuration by creating a
// service and pinging it.
func ValidateGenerationConfig(settings domain.GenerationSettings) error {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateRerankerConfig validates a reranker configuration by pinging the
// endpoint. A disabled reranker always validates.
func ValidateRerankerConfig(settings domain.RerankerSettings) error {
	r := CreateReranker(settings)
	if r == nil {
		return nil
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return r.Ping(ctx)
}
