package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ansa-cli/internal/logger"
	"github.com/custodia-labs/ansa-cli/internal/postprocessors"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// defaultSourceTag labels documents ingested without an explicit tag.
const defaultSourceTag = "local"

// Embedding API throttle for batch ingestion. One token per EmbedBatch
// call, so large corpora cannot hammer the provider.
const (
	embedCallsPerSecond = 4
	embedCallBurst      = 4
)

// mimeByExtension maps supported file extensions to the MIME type used
// for normaliser dispatch.
var mimeByExtension = map[string]string{
	".txt":      "text/plain",
	".csv":      "text/csv",
	".json":     "application/json",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// IngestService loads documents from the filesystem, extracts text,
// chunks and embeds it, and upserts the result into the vector index.
// Per-document failures never abort the batch.
type IngestService struct {
	settings   driving.SettingsService
	normaliser driven.NormaliserRegistry
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	limiter    *rate.Limiter
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	settings driving.SettingsService,
	normaliser driven.NormaliserRegistry,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
) *IngestService {
	return &IngestService{
		settings:   settings,
		normaliser: normaliser,
		embedder:   embedder,
		index:      index,
		limiter:    rate.NewLimiter(rate.Limit(embedCallsPerSecond), embedCallBurst),
	}
}

// IngestPath ingests a single file or a directory tree.
// Configuration violations fail the whole call with
// domain.ErrConfiguration; per-document failures are collected in the
// report and the batch continues.
func (s *IngestService) IngestPath(ctx context.Context, path string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	start := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("%w: configure an embedding provider with 'ansa settings set'", domain.ErrEmbeddingUnavailable)
	}

	retrieval, sourceTag, err := s.runSettings(opts)
	if err != nil {
		return nil, err
	}

	pipeline, err := postprocessors.NewChunkingPipeline(retrieval)
	if err != nil {
		return nil, err
	}

	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}

	report := &domain.IngestReport{RunID: uuid.NewString()}

	logger.Section("Ingestion")
	logger.Info("Run %s: %d file(s) under %s", report.RunID, len(files), path)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunks, err := s.ingestFile(ctx, file, sourceTag, pipeline)
		if err != nil {
			logger.Warn("Failed to ingest %s: %v", file, err)
			report.Errors = append(report.Errors, domain.DocumentError{
				URI:     file,
				Err:     err,
				Message: err.Error(),
			})
			continue
		}
		if chunks == 0 {
			report.DocumentsEmpty++
			continue
		}
		report.DocumentsProcessed++
		report.ChunksCreated += chunks
	}

	report.Duration = time.Since(start)
	logger.Info("Run %s done: %d processed, %d empty, %d chunks, %d error(s) in %s",
		report.RunID, report.DocumentsProcessed, report.DocumentsEmpty,
		report.ChunksCreated, len(report.Errors), report.Duration)

	return report, nil
}

// Watch re-ingests documents under path as files change. It blocks
// until the context is cancelled. Each change is ingested file by
// file, so concurrent queries only ever wait on one document's upsert.
func (s *IngestService) Watch(ctx context.Context, path string, opts driving.IngestOptions) error {
	retrieval, sourceTag, err := s.runSettings(opts)
	if err != nil {
		return err
	}
	pipeline, err := postprocessors.NewChunkingPipeline(retrieval)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, path); err != nil {
		return err
	}

	logger.Info("Watching %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, watcher, event, sourceTag, pipeline)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

// handleEvent reacts to one filesystem event: re-ingest on write or
// create, drop the document on remove or rename. Unsupported files and
// transient failures are logged, never fatal to the watch loop.
func (s *IngestService) handleEvent(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	event fsnotify.Event,
	sourceTag string,
	pipeline driven.PostProcessorPipeline,
) {
	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// New subdirectory: extend the watch.
			if err := watchTree(watcher, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
			return
		}
		if _, ok := mimeByExtension[strings.ToLower(filepath.Ext(event.Name))]; !ok {
			return
		}
		logger.Debug("Change detected: %s", event.Name)
		if _, err := s.ingestFile(ctx, event.Name, sourceTag, pipeline); err != nil {
			logger.Warn("Failed to re-ingest %s: %v", event.Name, err)
		}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		docID := domain.NewDocumentID(event.Name)
		if err := s.index.DeleteBySource(ctx, docID); err != nil {
			logger.Warn("Failed to drop %s from index: %v", event.Name, err)
		} else {
			logger.Debug("Dropped %s from index", event.Name)
		}
	}
}

// ingestFile runs the full pipeline for one file and returns the
// number of chunks indexed. Zero chunks with a nil error means the
// document was empty after extraction.
func (s *IngestService) ingestFile(
	ctx context.Context,
	path string,
	sourceTag string,
	pipeline driven.PostProcessorPipeline,
) (int, error) {
	mimeType, ok := mimeByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	result, err := s.normaliser.Normalise(ctx, &driven.RawDocument{
		URI:       path,
		SourceTag: sourceTag,
		MIMEType:  mimeType,
		Content:   content,
	})
	if err != nil {
		return 0, fmt.Errorf("normalise: %w", err)
	}
	doc := result.Document

	chunks, err := pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		logger.Debug("Document %s is empty after extraction", path)
		return 0, nil
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	if err := s.index.Upsert(ctx, doc, chunks); err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}

	logger.Debug("Indexed %s: %d chunks", path, len(chunks))
	return len(chunks), nil
}

// embedChunks populates the embedding of every chunk in place, one
// throttled batch call per document.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("embed rate limit: %w", err)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}

// runSettings snapshots the configured settings and applies the
// per-run overrides, re-validating the result.
func (s *IngestService) runSettings(opts driving.IngestOptions) (domain.RetrievalSettings, string, error) {
	settings, err := s.settings.Snapshot()
	if err != nil {
		return domain.RetrievalSettings{}, "", err
	}

	retrieval := settings.Retrieval
	if opts.ChunkSize > 0 {
		retrieval.ChunkSize = opts.ChunkSize
	}
	if opts.Overlap >= 0 {
		retrieval.Overlap = opts.Overlap
	}
	if err := retrieval.Validate(); err != nil {
		return domain.RetrievalSettings{}, "", err
	}

	sourceTag := opts.SourceTag
	if sourceTag == "" {
		sourceTag = defaultSourceTag
	}

	return retrieval, sourceTag, nil
}

// collectFiles resolves path to the list of files to ingest. A single
// file is returned as-is so an unsupported extension surfaces as a
// per-document error; directory walks skip unsupported files silently.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat path: %w", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories like .git.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := mimeByExtension[strings.ToLower(filepath.Ext(p))]; ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}

	return files, nil
}

// watchTree registers path and, when it is a directory, every
// subdirectory with the watcher.
func watchTree(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		// Watch the containing directory so editor rename-replace
		// saves are still observed.
		return watcher.Add(filepath.Dir(path))
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && strings.HasPrefix(name, ".") && p != path {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
