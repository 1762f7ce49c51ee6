// Package plaintext is the fallback normaliser for text formats.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
// Structured text (CSV, JSON, YAML, TOML) is indexed as-is.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/yaml",
		"text/toml",
		"application/json",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // fallback, any format-specific normaliser wins
}

// Normalise passes the text through with line endings and BOM
// normalised, so chunk offsets are stable regardless of the file's
// platform of origin.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimPrefix(string(raw.Content), "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	doc := domain.Document{
		ID:         domain.NewDocumentID(raw.URI),
		URI:        raw.URI,
		SourceTag:  raw.SourceTag,
		Title:      extractTitle(raw.URI),
		Content:    content,
		Format:     "txt",
		Metadata:   map[string]any{"mime_type": raw.MIMEType},
		IngestedAt: time.Now(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// extractTitle derives a human-readable title from the URI: filename
// without extension, separators turned into spaces.
func extractTitle(uri string) string {
	name := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
