package driven

import "github.com/custodia-labs/ansa-cli/internal/core/domain"

// AIConfigValidator validates AI provider configurations by testing
// connectivity to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging
	// the provider. Returns nil if the configuration is valid or the
	// provider is not configured.
	ValidateEmbedding(settings domain.EmbeddingSettings, dimensions int) error

	// ValidateGeneration validates a generation configuration by pinging
	// the provider. Returns nil if the configuration is valid or the
	// provider is not configured.
	ValidateGeneration(settings domain.GenerationSettings) error

	// ValidateReranker validates a reranker configuration by pinging the
	// endpoint. Returns nil if reranking is disabled.
	ValidateReranker(settings domain.RerankerSettings) error
}
