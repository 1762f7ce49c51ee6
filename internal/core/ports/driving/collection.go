package driving

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// CollectionService exposes operational inspection and maintenance of
// the vector collection.
type CollectionService interface {
	// Stats reports the collection's durable counts and configuration.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Clear deletes every entry in the collection. Destructive and
	// irreversible; callers are expected to gate this behind an
	// explicit operator action.
	Clear(ctx context.Context) error
}

// SettingsService reads and validates the application settings.
type SettingsService interface {
	// Snapshot returns the current settings, range-validated.
	// Violations fail with domain.ErrConfiguration.
	Snapshot() (domain.AppSettings, error)

	// Set stores a single settings key.
	Set(key string, value any) error

	// ValidateEmbeddingConfig checks the stored embedding configuration
	// by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateGenerationConfig checks the stored generation
	// configuration by pinging the provider.
	ValidateGenerationConfig() error

	// ValidateRerankerConfig checks the stored reranker configuration
	// by pinging the endpoint.
	ValidateRerankerConfig() error
}
