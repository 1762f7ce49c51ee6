package ai

import (
	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(settings domain.EmbeddingSettings, dimensions int) error {
	return ValidateEmbeddingConfig(settings, dimensions)
}

// ValidateGeneration validates a generation configuration by pinging the provider.
func (v *ConfigValidator) ValidateGeneration(settings domain.GenerationSettings) error {
	return ValidateGenerationConfig(settings)
}

// ValidateReranker validates a reranker configuration by pinging the endpoint.
func (v *ConfigValidator) ValidateReranker(settings domain.RerankerSettings) error {
	return ValidateRerankerConfig(settings)
}
