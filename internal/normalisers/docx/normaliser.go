// Package docx extracts paragraph text from DOCX archives.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise pulls paragraph text out of word/document.xml and the
// title out of docProps/core.xml. A file that is not a zip archive is
// rejected as unsupported rather than treated as empty.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid docx archive", domain.ErrUnsupportedFormat, raw.URI)
	}

	content, err := docText(archive)
	if err != nil {
		return nil, err
	}

	doc := domain.Document{
		ID:         domain.NewDocumentID(raw.URI),
		URI:        raw.URI,
		SourceTag:  raw.SourceTag,
		Title:      docTitle(archive, raw.URI),
		Content:    content,
		Format:     "docx",
		Metadata:   map[string]any{"mime_type": raw.MIMEType},
		IngestedAt: time.Now(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// archiveFile returns the named entry's bytes, or false when the
// entry is absent or unreadable.
func archiveFile(archive *zip.Reader, name string) ([]byte, bool) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, false
		}
		return data, true
	}
	return nil, false
}

// wordDocument mirrors the parts of word/document.xml we read: the
// body's paragraphs, each a sequence of runs holding text elements.
type wordDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// docText joins paragraph text with newlines. A missing or malformed
// document part yields empty content, which ingest reports as an
// empty document.
func docText(archive *zip.Reader) (string, error) {
	data, ok := archiveFile(archive, "word/document.xml")
	if !ok {
		return "", nil
	}

	var doc wordDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil //nolint:nilerr
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				b.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// docTitle prefers the core-properties title, then the filename with
// separators turned into spaces.
func docTitle(archive *zip.Reader, uri string) string {
	if data, ok := archiveFile(archive, "docProps/core.xml"); ok {
		var core struct {
			Title string `xml:"title"`
		}
		if err := xml.Unmarshal(data, &core); err == nil && core.Title != "" {
			return strings.TrimSpace(core.Title)
		}
	}

	name := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
