package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	normaliser := New()
	mimeTypes := normaliser.SupportedMIMETypes()

	require.NotEmpty(t, mimeTypes)
	assert.Contains(t, mimeTypes, "text/plain")
}

func TestPriority(t *testing.T) {
	normaliser := New()
	assert.Equal(t, 5, normaliser.Priority())
}

func TestNormalise_Success(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	raw := &driven.RawDocument{
		URI:       "/path/to/release_notes.txt",
		SourceTag: "docs",
		MIMEType:  "text/plain",
		Content:   []byte("Version 2.1 ships incremental sync."),
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	require.NotNil(t, result)

	doc := result.Document
	assert.Equal(t, domain.NewDocumentID(raw.URI), doc.ID)
	assert.Equal(t, raw.URI, doc.URI)
	assert.Equal(t, "docs", doc.SourceTag)
	assert.Equal(t, "release notes", doc.Title)
	assert.Equal(t, "Version 2.1 ships incremental sync.", doc.Content)
	assert.Equal(t, "txt", doc.Format)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.False(t, doc.IngestedAt.IsZero())
}

func TestNormalise_StableID(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	raw := &driven.RawDocument{
		URI:      "/path/to/notes.txt",
		MIMEType: "text/plain",
		Content:  []byte("first version"),
	}

	first, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)

	raw.Content = []byte("revised version")
	second, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)

	// Re-ingesting the same URI must produce the same document ID.
	assert.Equal(t, first.Document.ID, second.Document.ID)
}

func TestNormalise_NilDocument(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	result, err := normaliser.Normalise(ctx, nil)
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	normaliser := New()
	ctx := context.Background()

	raw := &driven.RawDocument{
		URI:      "/path/to/empty.txt",
		MIMEType: "text/plain",
		Content:  []byte{},
	}

	result, err := normaliser.Normalise(ctx, raw)
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "simple filename",
			uri:      "/path/to/document.txt",
			expected: "document",
		},
		{
			name:     "underscores become spaces",
			uri:      "/path/user_guide.txt",
			expected: "user guide",
		},
		{
			name:     "dashes become spaces",
			uri:      "/path/api-reference.txt",
			expected: "api reference",
		},
		{
			name:     "no extension",
			uri:      "/path/README",
			expected: "README",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.uri))
		})
	}
}
