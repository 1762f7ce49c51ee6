package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// stubProcessor appends a marker chunk for order verification.
type stubProcessor struct {
	name string
	err  error
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append(chunks, domain.Chunk{ID: s.name, DocumentID: doc.ID}), nil
}

func TestPipelineRunsProcessorsInOrder(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "first"}, &stubProcessor{name: "second"})

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first", chunks[0].ID)
	assert.Equal(t, "second", chunks[1].ID)
}

func TestPipelineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&stubProcessor{name: "bad", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "processor bad")
}

func TestPipelineNilDocument(t *testing.T) {
	p := NewPipeline()
	_, err := p.Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewChunkingPipeline(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		pipeline, err := NewChunkingPipeline(domain.DefaultAppSettings().Retrieval)
		require.NoError(t, err)

		chunks, err := pipeline.Process(context.Background(), &domain.Document{
			ID:      "doc",
			Content: "Some modest content.",
		})
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
	})

	t.Run("overlap not below chunk size", func(t *testing.T) {
		settings := domain.DefaultAppSettings().Retrieval
		settings.ChunkSize = 100
		settings.Overlap = 100
		_, err := NewChunkingPipeline(settings)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})
}
