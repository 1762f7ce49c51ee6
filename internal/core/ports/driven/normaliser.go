package driven

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// RawDocument represents opaque bytes read from the corpus before
// text extraction.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// SourceTag groups documents from one ingestion source.
	SourceTag string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Normaliser extracts plain text and page/section metadata from a raw
// document. Each normaliser handles specific MIME types.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text from a raw document. The result carries
	// the full Content and, where the format has pages, the page spans.
	// Chunking is handled by the PostProcessor pipeline.
	Normalise(ctx context.Context, raw *RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Document is the extracted document with Content populated.
	Document domain.Document
}

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches by
// MIME type.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching
	// normaliser. Returns domain.ErrUnsupportedFormat when no
	// normaliser handles the MIME type.
	Normalise(ctx context.Context, raw *RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
