package driving

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// IngestOptions configures one ingestion run. Zero values fall back to
// the configured settings snapshot.
type IngestOptions struct {
	// ChunkSize overrides the configured chunk size when positive.
	ChunkSize int

	// Overlap overrides the configured overlap when non-negative.
	// Use -1 to keep the configured value.
	Overlap int

	// SourceTag labels the ingested documents. Defaults to "local".
	SourceTag string
}

// IngestService loads documents, chunks and embeds them, and upserts
// the result into the vector index.
type IngestService interface {
	// IngestPath ingests a single file or a directory tree.
	// Per-document failures are collected in the report; one bad
	// document never aborts the batch. Configuration violations fail
	// the whole call with domain.ErrConfiguration.
	IngestPath(ctx context.Context, path string, opts IngestOptions) (*domain.IngestReport, error)

	// Watch re-ingests documents under path as the files change.
	// It blocks until the context is cancelled. Each change is
	// ingested incrementally; concurrent queries are never blocked
	// for the duration of a whole re-index.
	Watch(ctx context.Context, path string, opts IngestOptions) error
}
