package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds generative model provider configuration.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generative model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// RerankerSettings holds cross-encoder reranker configuration.
// The reranker is optional; when unreachable the pipeline degrades to
// similarity ordering.
type RerankerSettings struct {
	// Enabled indicates whether reranking is attempted at all.
	Enabled bool

	// BaseURL is the rerank endpoint (text-embeddings-inference
	// compatible /rerank API).
	BaseURL string

	// Model is the cross-encoder model name, informational.
	Model string
}

// Range bounds for retrieval tunables. Values outside these bounds are
// rejected with ErrConfiguration, never clamped.
const (
	MinChunkSize = 100
	MaxChunkSize = 2000

	MinOverlap = 0
	MaxOverlap = 500

	MinTemperature = 0.0
	MaxTemperature = 2.0

	MinMaxTokens = 50
	MaxMaxTokens = 1000

	MinContextBudget = 200
	MaxContextBudget = 10000
)

// RetrievalSettings holds the tunables of the retrieval pipeline.
// A snapshot is taken and validated at the start of each ingest or
// answer call; the pipeline never reacts to mid-flight changes.
type RetrievalSettings struct {
	// ChunkSize is the chunk length in characters.
	ChunkSize int

	// Overlap is the character overlap between consecutive chunks.
	// Must be strictly less than ChunkSize.
	Overlap int

	// RetrievalK is the number of candidates fetched from the vector
	// index (the overfetch before reranking).
	RetrievalK int

	// RerankTopN is the number of candidates kept after reranking.
	// Must satisfy RetrievalK >= RerankTopN >= 1.
	RerankTopN int

	// ContextBudget is the approximate token budget for assembled context.
	ContextBudget int

	// Temperature controls generation randomness.
	Temperature float64

	// MaxTokens bounds the generated answer length.
	MaxTokens int
}

// Validate checks all tunables against their ranges and cross-field
// constraints. It fails fast with ErrConfiguration; it never clamps.
func (r RetrievalSettings) Validate() error {
	if r.ChunkSize < MinChunkSize || r.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk_size %d outside [%d, %d]",
			ErrConfiguration, r.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if r.Overlap < MinOverlap || r.Overlap > MaxOverlap {
		return fmt.Errorf("%w: overlap %d outside [%d, %d]",
			ErrConfiguration, r.Overlap, MinOverlap, MaxOverlap)
	}
	if r.Overlap >= r.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be less than chunk_size %d",
			ErrConfiguration, r.Overlap, r.ChunkSize)
	}
	if r.RerankTopN < 1 {
		return fmt.Errorf("%w: rerank_top_n %d must be at least 1",
			ErrConfiguration, r.RerankTopN)
	}
	if r.RetrievalK < r.RerankTopN {
		return fmt.Errorf("%w: retrieval_k %d must be at least rerank_top_n %d",
			ErrConfiguration, r.RetrievalK, r.RerankTopN)
	}
	if r.ContextBudget < MinContextBudget || r.ContextBudget > MaxContextBudget {
		return fmt.Errorf("%w: context_budget %d outside [%d, %d]",
			ErrConfiguration, r.ContextBudget, MinContextBudget, MaxContextBudget)
	}
	if r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]",
			ErrConfiguration, r.Temperature, MinTemperature, MaxTemperature)
	}
	if r.MaxTokens < MinMaxTokens || r.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max_tokens %d outside [%d, %d]",
			ErrConfiguration, r.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Retrieval holds the pipeline tunables.
	Retrieval RetrievalSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Generation holds generative model provider settings.
	Generation GenerationSettings

	// Reranker holds cross-encoder reranker settings.
	Reranker RerankerSettings

	// Dimensions is the embedding vector size, fixed per index instance.
	Dimensions int
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users set them up explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Retrieval: RetrievalSettings{
			ChunkSize:     600,
			Overlap:       80,
			RetrievalK:    8,
			RerankTopN:    3,
			ContextBudget: 1200,
			Temperature:   0.2,
			MaxTokens:     140,
		},
		Embedding:  EmbeddingSettings{},
		Generation: GenerationSettings{},
		Reranker:   RerankerSettings{},
		Dimensions: 768, // nomic-embed-text default
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultGenerationModels returns default models for each generation provider.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}
