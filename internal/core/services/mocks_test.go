package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockConfigStore implements driven.ConfigStore over an in-memory map.
type mockConfigStore struct {
	mu     sync.Mutex
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if v, ok := m.Get(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	if v, ok := m.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	if v, ok := m.Get(key); ok {
		if s, ok := v.([]string); ok {
			return s
		}
	}
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "/tmp/config.toml"
}

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	dims      int
	batches   [][]string
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.batches = append(m.batches, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.embedding
	}
	return vectors, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockVectorIndex implements driven.VectorIndex.
type mockVectorIndex struct {
	mu         sync.Mutex
	candidates []domain.RetrievalCandidate
	queryErr   error
	upsertErr  error
	deleteErr  error
	clearErr   error
	stats      domain.IndexStats
	statsErr   error

	upserted map[string][]domain.Chunk
	deleted  []string
	cleared  bool
}

func (m *mockVectorIndex) Upsert(_ context.Context, doc domain.Document, chunks []domain.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upserted == nil {
		m.upserted = make(map[string][]domain.Chunk)
	}
	m.upserted[doc.ID] = chunks
	return nil
}

func (m *mockVectorIndex) Query(_ context.Context, _ []float32, k int) ([]domain.RetrievalCandidate, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k > len(m.candidates) {
		return m.candidates, nil
	}
	return m.candidates[:k], nil
}

func (m *mockVectorIndex) DeleteBySource(_ context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockVectorIndex) Clear(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	return nil
}

func (m *mockVectorIndex) Stats(_ context.Context) (domain.IndexStats, error) {
	if m.statsErr != nil {
		return domain.IndexStats{}, m.statsErr
	}
	return m.stats, nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockReranker implements driven.Reranker.
type mockReranker struct {
	ranked    []domain.RerankedCandidate
	rerankErr error
	calls     int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, _ []domain.RetrievalCandidate, topN int) ([]domain.RerankedCandidate, error) {
	m.calls++
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	if topN > len(m.ranked) {
		return m.ranked, nil
	}
	return m.ranked[:topN], nil
}

func (m *mockReranker) ModelName() string            { return "mock-reranker" }
func (m *mockReranker) Ping(_ context.Context) error { return nil }
func (m *mockReranker) Close() error                 { return nil }

// mockGenerationService implements driven.GenerationService.
type mockGenerationService struct {
	response string
	chatErr  error
	calls    int

	lastMessages []driven.ChatMessage
	lastOpts     driven.ChatOptions
}

func (m *mockGenerationService) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.lastMessages = messages
	m.lastOpts = opts
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.response, nil
}

func (m *mockGenerationService) ModelName() string            { return "mock-gen" }
func (m *mockGenerationService) Ping(_ context.Context) error { return nil }
func (m *mockGenerationService) Close() error                 { return nil }

// mockPromptStore implements driven.PromptStore with fixed templates.
type mockPromptStore struct {
	prompts map[string]string
	loadErr error
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem: "Answer from context only. End with <END>",
		driven.PromptAnswerUser:   "Question: %s\n\nContext:\n%s\n\nAnswer:",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload()     {}
func (m *mockPromptStore) Dir() string { return "/tmp/prompts" }

// --- Test data helpers ---

// candidate builds a retrieval candidate with deterministic fields.
func candidate(docID string, ordinal int, content string, similarity float64) domain.RetrievalCandidate {
	return domain.RetrievalCandidate{
		Chunk: domain.Chunk{
			ID:         domain.NewChunkID(docID, ordinal),
			DocumentID: docID,
			Content:    content,
			Ordinal:    ordinal,
		},
		Document: domain.DocumentRef{
			ID:    docID,
			URI:   "/corpus/" + docID + ".txt",
			Title: strings.ToUpper(docID),
		},
		Similarity: similarity,
	}
}

// validSettings returns a config store seeded with a fully configured
// application.
func validSettings() *mockConfigStore {
	store := newMockConfigStore()
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("generation.provider", "ollama")
	return store
}

// mockAIValidator implements driven.AIConfigValidator and records the
// settings each check received.
type mockAIValidator struct {
	embedErr    error
	generateErr error
	rerankErr   error

	embedSettings    domain.EmbeddingSettings
	embedDimensions  int
	generateSettings domain.GenerationSettings
	rerankSettings   domain.RerankerSettings
}

func (m *mockAIValidator) ValidateEmbedding(settings domain.EmbeddingSettings, dimensions int) error {
	m.embedSettings = settings
	m.embedDimensions = dimensions
	return m.embedErr
}

func (m *mockAIValidator) ValidateGeneration(settings domain.GenerationSettings) error {
	m.generateSettings = settings
	return m.generateErr
}

func (m *mockAIValidator) ValidateReranker(settings domain.RerankerSettings) error {
	m.rerankSettings = settings
	return m.rerankErr
}
