package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ansa-cli/internal/normalisers"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/ansa-cli/internal/normalisers/plaintext"
)

// ingestFixture wires an IngestService against the real normaliser
// registry and chunking pipeline, with mocked embedding and index.
type ingestFixture struct {
	store    *mockConfigStore
	embedder *mockEmbeddingService
	index    *mockVectorIndex
}

func newIngestFixture() *ingestFixture {
	return &ingestFixture{
		store:    validSettings(),
		embedder: &mockEmbeddingService{embedding: []float32{1, 0, 0}},
		index:    &mockVectorIndex{},
	}
}

func (f *ingestFixture) service() *IngestService {
	registry := normalisers.NewDefaultRegistry(
		plaintext.New(),
		markdown.New(),
	)
	return NewIngestService(NewSettingsService(f.store, nil), registry, f.embedder, f.index)
}

// writeCorpus creates a temp directory with the given files and
// returns its path.
func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestIngestPath_SingleFile(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{
		"notes.txt": strings.Repeat("Go is a compiled language. ", 60),
	})

	report, err := f.service().IngestPath(context.Background(), filepath.Join(dir, "notes.txt"), driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Zero(t, report.DocumentsEmpty)
	assert.Greater(t, report.ChunksCreated, 1)
	assert.Empty(t, report.Errors)
	assert.NotEmpty(t, report.RunID)
	assert.Positive(t, report.Duration)

	docID := domain.NewDocumentID(filepath.Join(dir, "notes.txt"))
	chunks, ok := f.index.upserted[docID]
	require.True(t, ok, "chunks must be upserted under the stable document ID")
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Embedding, "every indexed chunk carries an embedding")
	}
}

func TestIngestPath_DirectoryTree(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{
		"a.txt":          strings.Repeat("alpha content here. ", 40),
		"docs/b.md":      "# Guide\n\n" + strings.Repeat("markdown body text. ", 40),
		"docs/skip.bin":  "binary noise",
		".hidden/c.txt":  "never read",
		"docs/empty.txt": "   \n  ",
	})

	report, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	assert.Equal(t, 2, report.DocumentsProcessed, "txt and md are ingested, unsupported and hidden files skipped")
	assert.Equal(t, 1, report.DocumentsEmpty)
	assert.Empty(t, report.Errors)
}

func TestIngestPath_PerDocumentErrorsDoNotAbort(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{
		"good.txt": strings.Repeat("useful text. ", 40),
	})
	// A supported extension passed explicitly but unreadable: make the
	// file a directory so ReadFile fails.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bad.txt"), 0o755))

	report, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].URI, "bad.txt")
	assert.NotEmpty(t, report.Errors[0].Message)
}

func TestIngestPath_UnsupportedSingleFile(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"data.bin": "x"})

	report, err := f.service().IngestPath(context.Background(), filepath.Join(dir, "data.bin"), driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0].Err, domain.ErrUnsupportedFormat)
}

func TestIngestPath_MissingPath(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service().IngestPath(context.Background(), "/no/such/path", driving.IngestOptions{Overlap: -1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestPath_NoEmbedder(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": "text"})

	registry := normalisers.NewDefaultRegistry(plaintext.New())
	svc := NewIngestService(NewSettingsService(f.store, nil), registry, nil, f.index)

	_, err := svc.IngestPath(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIngestPath_InvalidOverrideFails(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": "text"})

	_, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{ChunkSize: 50, Overlap: -1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestIngestPath_OverridesApply(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{
		"long.txt": strings.Repeat("sentence goes here. ", 200),
	})

	small, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{ChunkSize: 200, Overlap: 0})
	require.NoError(t, err)

	f2 := newIngestFixture()
	large, err := f2.service().IngestPath(context.Background(), dir, driving.IngestOptions{ChunkSize: 2000, Overlap: 0})
	require.NoError(t, err)

	assert.Greater(t, small.ChunksCreated, large.ChunksCreated)
}

func TestIngestPath_EmbeddingFailureIsPerDocument(t *testing.T) {
	f := newIngestFixture()
	f.embedder.embedErr = domain.ErrEmbeddingUnavailable
	dir := writeCorpus(t, map[string]string{"a.txt": strings.Repeat("text. ", 40)})

	report, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	assert.Zero(t, report.DocumentsProcessed)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0].Err, domain.ErrEmbeddingUnavailable)
	assert.Empty(t, f.index.upserted, "nothing reaches the index when embedding fails")
}

func TestIngestPath_ReingestKeepsDocumentID(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": strings.Repeat("v1 text. ", 40)})
	path := filepath.Join(dir, "a.txt")
	svc := f.service()

	_, err := svc.IngestPath(context.Background(), path, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("v2 text. ", 40)), 0o644))
	_, err = svc.IngestPath(context.Background(), path, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	assert.Len(t, f.index.upserted, 1, "re-ingestion replaces, never duplicates")
}

func TestIngestPath_SourceTagDefaultsToLocal(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": strings.Repeat("text. ", 40)})

	_, err := f.service().IngestPath(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	require.NoError(t, err)

	for _, chunks := range f.index.upserted {
		require.NotEmpty(t, chunks)
	}
}

func TestWatch_ReingestsOnWrite(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": strings.Repeat("first. ", 40)})
	svc := f.service()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Watch(ctx, dir, driving.IngestOptions{Overlap: -1})
	}()

	// Give the watcher time to register before mutating the tree.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(strings.Repeat("second. ", 40)), 0o644))

	docID := domain.NewDocumentID(filepath.Join(dir, "a.txt"))
	assert.Eventually(t, func() bool {
		f.index.mu.Lock()
		defer f.index.mu.Unlock()
		_, ok := f.index.upserted[docID]
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatch_DropsRemovedFiles(t *testing.T) {
	f := newIngestFixture()
	dir := writeCorpus(t, map[string]string{"a.txt": strings.Repeat("text. ", 40)})
	path := filepath.Join(dir, "a.txt")
	svc := f.service()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = svc.Watch(ctx, dir, driving.IngestOptions{Overlap: -1}) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	docID := domain.NewDocumentID(path)
	assert.Eventually(t, func() bool {
		f.index.mu.Lock()
		defer f.index.mu.Unlock()
		for _, id := range f.index.deleted {
			if id == docID {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_InvalidSettingsFailImmediately(t *testing.T) {
	f := newIngestFixture()
	_ = f.store.Set("retrieval.chunk_size", 10)
	dir := t.TempDir()

	err := f.service().Watch(context.Background(), dir, driving.IngestOptions{Overlap: -1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCollectFiles_SortedDeterministicInput(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"b.txt": "b",
		"a.txt": "a",
	})

	files, err := collectFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	// WalkDir visits lexically, so runs are reproducible.
	assert.True(t, strings.HasSuffix(files[0], "a.txt"))
	assert.True(t, strings.HasSuffix(files[1], "b.txt"))
}
