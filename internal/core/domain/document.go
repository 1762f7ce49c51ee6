package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Document represents an ingested source document.
// It is the canonical representation after text extraction and is
// superseded, never mutated, when the same source is re-ingested.
type Document struct {
	// ID is the stable identifier, derived from the source URI.
	// Re-ingesting the same file produces the same ID so the old
	// chunks can be replaced atomically.
	ID string

	// URI is the original location (file path).
	URI string

	// SourceTag groups documents from one ingestion source.
	SourceTag string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Format is the detected input format ("txt", "markdown", "pdf", "docx").
	Format string

	// Pages records page boundaries as offset spans into Content.
	// Empty for formats without page structure.
	Pages []PageSpan

	// Metadata contains format-specific key-value pairs.
	Metadata map[string]any

	// IngestedAt is when the document text was extracted.
	IngestedAt time.Time
}

// PageSpan maps a page number to its character span within Document.Content.
// Offsets are rune indices, half-open [Start, End).
type PageSpan struct {
	// Number is the 1-based page number.
	Number int

	// Start is the rune offset of the page's first character.
	Start int

	// End is the rune offset one past the page's last character.
	End int
}

// PageAt returns the page number containing the given rune offset,
// or 0 when the document has no page structure.
func (d *Document) PageAt(offset int) int {
	for _, p := range d.Pages {
		if offset >= p.Start && offset < p.End {
			return p.Number
		}
	}
	if n := len(d.Pages); n > 0 && offset >= d.Pages[n-1].End {
		return d.Pages[n-1].Number
	}
	return 0
}

// NewDocumentID derives the stable document identifier from a source URI.
// The same URI always yields the same ID.
func NewDocumentID(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:16])
}

// Chunk represents a contiguous span of a document's extracted text.
// Chunks are immutable once created; they are deleted only when the
// owning document is re-ingested or the collection is cleared.
type Chunk struct {
	// ID is the stable chunk identifier, derived from the document ID
	// and the chunk's ordinal position.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Ordinal is the position within the document, starting at 0.
	Ordinal int

	// StartOffset and EndOffset are the rune span within the document's
	// extracted text, half-open [StartOffset, EndOffset). Recorded for
	// citation purposes.
	StartOffset int
	EndOffset   int

	// Overlap is the number of runes shared with the preceding chunk.
	// Zero for the first chunk of a document.
	Overlap int

	// Page is the 1-based page number the chunk starts on, or 0 when
	// the source format has no pages.
	Page int

	// Embedding is the unit-norm vector representation. Populated at
	// ingestion time, before the chunk enters the index.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// NewChunkID derives the stable chunk identifier from the owning
// document ID and the chunk's ordinal.
func NewChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", documentID, ordinal)
}
