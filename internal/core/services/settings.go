package services

import (
	"fmt"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize     = "retrieval.chunk_size"
	keyOverlap       = "retrieval.overlap"
	keyRetrievalK    = "retrieval.k"
	keyRerankTopN    = "retrieval.top_n"
	keyContextBudget = "retrieval.context_budget"
	keyTemperature   = "retrieval.temperature"
	keyMaxTokens     = "retrieval.max_tokens"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"

	keyGenProvider = "generation.provider"
	keyGenModel    = "generation.model"
	keyGenBaseURL  = "generation.base_url"
	keyGenAPIKey   = "generation.api_key"

	keyRerankEnabled = "reranker.enabled"
	keyRerankBaseURL = "reranker.base_url"
	keyRerankModel   = "reranker.model"

	keyIndexDimensions = "index.dimensions"
)

// knownKeys lists every settings key the service accepts.
var knownKeys = map[string]struct{}{
	keyChunkSize:       {},
	keyOverlap:         {},
	keyRetrievalK:      {},
	keyRerankTopN:      {},
	keyContextBudget:   {},
	keyTemperature:     {},
	keyMaxTokens:       {},
	keyEmbedProvider:   {},
	keyEmbedModel:      {},
	keyEmbedBaseURL:    {},
	keyEmbedAPIKey:     {},
	keyGenProvider:     {},
	keyGenModel:        {},
	keyGenBaseURL:      {},
	keyGenAPIKey:       {},
	keyRerankEnabled:   {},
	keyRerankBaseURL:   {},
	keyRerankModel:     {},
	keyIndexDimensions: {},
}

// SettingsService reads and validates application settings.
// Every pipeline run takes one Snapshot at the start; the pipeline
// never reacts to mid-flight configuration changes.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service. The validator may
// be nil, in which case connectivity checks pass trivially.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{configStore: configStore, aiValidator: aiValidator}
}

// ValidateEmbeddingConfig checks the stored embedding configuration by
// pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Snapshot()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(settings.Embedding, settings.Dimensions)
}

// ValidateGenerationConfig checks the stored generation configuration
// by pinging the provider.
func (s *SettingsService) ValidateGenerationConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Snapshot()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateGeneration(settings.Generation)
}

// ValidateRerankerConfig checks the stored reranker configuration by
// pinging the endpoint.
func (s *SettingsService) ValidateRerankerConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Snapshot()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateReranker(settings.Reranker)
}

// Snapshot returns the current settings, range-validated.
// Out-of-range values fail with domain.ErrConfiguration; nothing is
// clamped.
func (s *SettingsService) Snapshot() (domain.AppSettings, error) {
	settings := s.read()

	if err := settings.Retrieval.Validate(); err != nil {
		return domain.AppSettings{}, err
	}
	if p := settings.Embedding.Provider; p != "" && !p.IsValid() {
		return domain.AppSettings{}, fmt.Errorf("%w: unknown embedding provider %q",
			domain.ErrConfiguration, p)
	}
	if p := settings.Generation.Provider; p != "" && !p.IsValid() {
		return domain.AppSettings{}, fmt.Errorf("%w: unknown generation provider %q",
			domain.ErrConfiguration, p)
	}
	if settings.Dimensions < 1 {
		return domain.AppSettings{}, fmt.Errorf("%w: dimensions %d must be positive",
			domain.ErrConfiguration, settings.Dimensions)
	}

	return settings, nil
}

// Set stores a single settings key. The value is range-checked against
// the current settings before it is persisted, so the stored
// configuration can never transition from valid to invalid.
func (s *SettingsService) Set(key string, value any) error {
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrConfiguration, key)
	}

	candidate := s.read()
	if err := applyKey(&candidate, key, value); err != nil {
		return err
	}
	if err := candidate.Retrieval.Validate(); err != nil {
		return err
	}
	if candidate.Dimensions < 1 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrConfiguration)
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// read assembles settings from the config store with defaults filled
// in. No validation happens here; Snapshot and Set validate.
func (s *SettingsService) read() domain.AppSettings {
	settings := domain.DefaultAppSettings()

	settings.Retrieval.ChunkSize = s.getInt(keyChunkSize, settings.Retrieval.ChunkSize)
	settings.Retrieval.Overlap = s.getIntAllowZero(keyOverlap, settings.Retrieval.Overlap)
	settings.Retrieval.RetrievalK = s.getInt(keyRetrievalK, settings.Retrieval.RetrievalK)
	settings.Retrieval.RerankTopN = s.getInt(keyRerankTopN, settings.Retrieval.RerankTopN)
	settings.Retrieval.ContextBudget = s.getInt(keyContextBudget, settings.Retrieval.ContextBudget)
	settings.Retrieval.Temperature = s.getFloat(keyTemperature, settings.Retrieval.Temperature)
	settings.Retrieval.MaxTokens = s.getInt(keyMaxTokens, settings.Retrieval.MaxTokens)

	settings.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProvider(s.configStore.GetString(keyEmbedProvider)),
		Model:    s.configStore.GetString(keyEmbedModel),
		BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
		APIKey:   s.configStore.GetString(keyEmbedAPIKey),
	}
	if settings.Embedding.Model == "" {
		if m, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = m
		}
	}

	settings.Generation = domain.GenerationSettings{
		Provider: domain.AIProvider(s.configStore.GetString(keyGenProvider)),
		Model:    s.configStore.GetString(keyGenModel),
		BaseURL:  s.configStore.GetString(keyGenBaseURL),
		APIKey:   s.configStore.GetString(keyGenAPIKey),
	}
	if settings.Generation.Model == "" {
		if m, ok := domain.DefaultGenerationModels()[settings.Generation.Provider]; ok {
			settings.Generation.Model = m
		}
	}

	settings.Reranker = domain.RerankerSettings{
		Enabled: s.configStore.GetBool(keyRerankEnabled),
		BaseURL: s.configStore.GetString(keyRerankBaseURL),
		Model:   s.configStore.GetString(keyRerankModel),
	}

	settings.Dimensions = s.dimensionsFor(settings.Embedding.Model, settings.Dimensions)

	return settings
}

// dimensionsFor resolves the vector dimensionality: an explicit config
// value wins, then the known size of the embedding model, then the
// default.
func (s *SettingsService) dimensionsFor(model string, defaultVal int) int {
	if d := s.configStore.GetInt(keyIndexDimensions); d > 0 {
		return d
	}
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return defaultVal
}

// applyKey writes one key into the settings snapshot, coercing the
// value to the key's type. Type mismatches fail with ErrConfiguration.
func applyKey(settings *domain.AppSettings, key string, value any) error {
	switch key {
	case keyChunkSize:
		return setInt(&settings.Retrieval.ChunkSize, key, value)
	case keyOverlap:
		return setInt(&settings.Retrieval.Overlap, key, value)
	case keyRetrievalK:
		return setInt(&settings.Retrieval.RetrievalK, key, value)
	case keyRerankTopN:
		return setInt(&settings.Retrieval.RerankTopN, key, value)
	case keyContextBudget:
		return setInt(&settings.Retrieval.ContextBudget, key, value)
	case keyTemperature:
		return setFloat(&settings.Retrieval.Temperature, key, value)
	case keyMaxTokens:
		return setInt(&settings.Retrieval.MaxTokens, key, value)
	case keyIndexDimensions:
		return setInt(&settings.Dimensions, key, value)
	case keyEmbedProvider:
		str, err := asString(key, value)
		if err != nil {
			return err
		}
		p := domain.AIProvider(str)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, str)
		}
		settings.Embedding.Provider = p
		return nil
	case keyGenProvider:
		str, err := asString(key, value)
		if err != nil {
			return err
		}
		p := domain.AIProvider(str)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown generation provider %q", domain.ErrConfiguration, str)
		}
		settings.Generation.Provider = p
		return nil
	case keyEmbedModel:
		return setString(&settings.Embedding.Model, key, value)
	case keyEmbedBaseURL:
		return setString(&settings.Embedding.BaseURL, key, value)
	case keyEmbedAPIKey:
		return setString(&settings.Embedding.APIKey, key, value)
	case keyGenModel:
		return setString(&settings.Generation.Model, key, value)
	case keyGenBaseURL:
		return setString(&settings.Generation.BaseURL, key, value)
	case keyGenAPIKey:
		return setString(&settings.Generation.APIKey, key, value)
	case keyRerankEnabled:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a boolean, got %T", domain.ErrConfiguration, key, value)
		}
		settings.Reranker.Enabled = b
		return nil
	case keyRerankBaseURL:
		return setString(&settings.Reranker.BaseURL, key, value)
	case keyRerankModel:
		return setString(&settings.Reranker.Model, key, value)
	default:
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrConfiguration, key)
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit zero from an absent key.
// Needed for overlap, where zero is a legal setting.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

// Coercion helpers shared by applyKey.

func setInt(dst *int, key string, value any) error {
	switch v := value.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		*dst = int(v)
	default:
		return fmt.Errorf("%w: %s expects an integer, got %T", domain.ErrConfiguration, key, value)
	}
	return nil
}

func setFloat(dst *float64, key string, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case float32:
		*dst = float64(v)
	case int:
		*dst = float64(v)
	case int64:
		*dst = float64(v)
	default:
		return fmt.Errorf("%w: %s expects a number, got %T", domain.ErrConfiguration, key, value)
	}
	return nil
}

func setString(dst *string, key string, value any) error {
	str, err := asString(key, value)
	if err != nil {
		return err
	}
	*dst = str
	return nil
}

func asString(key string, value any) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s expects a string, got %T", domain.ErrConfiguration, key, value)
	}
	return str, nil
}
