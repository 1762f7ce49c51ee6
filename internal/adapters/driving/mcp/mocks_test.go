package mcp

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	lastOpts driving.AnswerOptions
}

func (m *mockAnswerService) Answer(_ context.Context, _ string, opts driving.AnswerOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockCollectionService implements driving.CollectionService for testing.
type mockCollectionService struct {
	stats domain.IndexStats
	err   error
}

func (m *mockCollectionService) Stats(_ context.Context) (domain.IndexStats, error) {
	if m.err != nil {
		return domain.IndexStats{}, m.err
	}
	return m.stats, nil
}

func (m *mockCollectionService) Clear(_ context.Context) error { return nil }

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *mockSettingsService) Snapshot() (domain.AppSettings, error) {
	if m.err != nil {
		return domain.AppSettings{}, m.err
	}
	return m.settings, nil
}

func (m *mockSettingsService) Set(_ string, _ any) error { return nil }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

func (m *mockSettingsService) ValidateGenerationConfig() error { return nil }

func (m *mockSettingsService) ValidateRerankerConfig() error { return nil }
