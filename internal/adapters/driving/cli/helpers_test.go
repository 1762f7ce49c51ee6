package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// --- Mock services ---

type mockAnswerService struct {
	answer    *domain.Answer
	err       error
	lastQuery string
	lastOpts  driving.AnswerOptions
}

func (m *mockAnswerService) Answer(_ context.Context, question string, opts driving.AnswerOptions) (*domain.Answer, error) {
	m.lastQuery = question
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockIngestService struct {
	report   *domain.IngestReport
	err      error
	watchErr error
	lastPath string
	lastOpts driving.IngestOptions
}

func (m *mockIngestService) IngestPath(_ context.Context, path string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	m.lastPath = path
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngestService) Watch(ctx context.Context, _ string, _ driving.IngestOptions) error {
	if m.watchErr != nil {
		return m.watchErr
	}
	<-ctx.Done()
	return ctx.Err()
}

type mockCollectionService struct {
	stats    domain.IndexStats
	statsErr error
	clearErr error
	cleared  bool
}

func (m *mockCollectionService) Stats(_ context.Context) (domain.IndexStats, error) {
	if m.statsErr != nil {
		return domain.IndexStats{}, m.statsErr
	}
	return m.stats, nil
}

func (m *mockCollectionService) Clear(_ context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = true
	return nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	setKey      string
	setValue    any
	setErr      error
	embedErr    error
	generateErr error
	rerankErr   error
}

func (m *mockSettingsService) Snapshot() (domain.AppSettings, error) {
	if m.err != nil {
		return domain.AppSettings{}, m.err
	}
	return m.settings, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.setKey = key
	m.setValue = value
	return nil
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettingsService) ValidateGenerationConfig() error { return m.generateErr }

func (m *mockSettingsService) ValidateRerankerConfig() error { return m.rerankErr }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	answer     *mockAnswerService
	ingest     *mockIngestService
	collection *mockCollectionService
	settings   *mockSettingsService
}

// setupTestServices installs happy-path mocks and returns them with a
// cleanup that restores the previous wiring.
func setupTestServices() (*testServices, func()) {
	mocks := &testServices{
		answer: &mockAnswerService{answer: &domain.Answer{
			Text: "Go was designed at Google.",
			Citations: []domain.Citation{
				{Source: "/corpus/go.txt", Title: "Go Notes", Ordinal: 0, ChunkID: "abc:0"},
			},
			ContextChunksUsed: 1,
			SessionID:         "test-session",
			Latency:           42 * time.Millisecond,
		}},
		ingest: &mockIngestService{report: &domain.IngestReport{
			RunID:              "run-1",
			DocumentsProcessed: 2,
			ChunksCreated:      9,
			Duration:           120 * time.Millisecond,
		}},
		collection: &mockCollectionService{stats: domain.IndexStats{
			TotalChunks:    9,
			TotalDocuments: 2,
			Dimensions:     768,
		}},
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
	}

	prevAnswer, prevIngest := answerService, ingestService
	prevCollection, prevSettings := collectionService, settingsService

	SetServices(Services{
		Answer:     mocks.answer,
		Ingest:     mocks.ingest,
		Collection: mocks.collection,
		Settings:   mocks.settings,
	})

	return mocks, func() {
		answerService = prevAnswer
		ingestService = prevIngest
		collectionService = prevCollection
		settingsService = prevSettings
	}
}
