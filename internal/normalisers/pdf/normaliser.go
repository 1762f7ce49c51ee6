package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific normaliser
}

// Normalise extracts text from a PDF page by page. Each page's span
// within the joined content is recorded so chunks can be attributed to
// a page for citations.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid pdf: %v", domain.ErrUnsupportedFormat, raw.URI, err)
	}

	content, pages := extractPages(reader)

	doc := domain.Document{
		ID:         domain.NewDocumentID(raw.URI),
		URI:        raw.URI,
		SourceTag:  raw.SourceTag,
		Title:      extractTitle(raw.URI),
		Content:    content,
		Format:     "pdf",
		Pages:      pages,
		Metadata:   map[string]any{"mime_type": raw.MIMEType, "page_count": len(pages)},
		IngestedAt: time.Now(),
	}

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// extractPages walks the PDF pages in order, joining their text with
// blank lines. Pages that yield no text are skipped; a page that fails
// extraction is skipped rather than failing the whole document.
func extractPages(reader *pdf.Reader) (string, []domain.PageSpan) {
	var sb strings.Builder
	var pages []domain.PageSpan
	offset := 0

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
			offset += 2
		}

		runes := utf8.RuneCountInString(text)
		pages = append(pages, domain.PageSpan{
			Number: i,
			Start:  offset,
			End:    offset + runes,
		})
		sb.WriteString(text)
		offset += runes
	}

	return sb.String(), pages
}

// extractTitle extracts a human-readable title from a URI.
func extractTitle(uri string) string {
	filename := filepath.Base(uri)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
