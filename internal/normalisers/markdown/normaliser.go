// Package markdown normalises Markdown files into plain retrieval text.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Patterns applied in order by strip. Code spans go first so their
// contents cannot be mistaken for other markup.
var stripPatterns = []struct {
	re      *regexp.Regexp
	replace string
}{
	{regexp.MustCompile("(?s)```[^`]*```"), ""},        // fenced code blocks
	{regexp.MustCompile("`[^`]+`"), ""},                // inline code
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), ""},   // images
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"}, // links keep their text
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},         // heading markers
	{regexp.MustCompile(`(?m)^>\s*`), ""},              // blockquote markers
	{regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`), ""},     // horizontal rules
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},       // bullet markers
	{regexp.MustCompile(`(?m)^\s*\d+\.\s+`), ""},       // numbered-list markers
	{regexp.MustCompile(`\n{3,}`), "\n\n"},             // collapse blank runs
}

// emphasisReplacer drops bold/italic markers after the structural
// patterns have run.
var emphasisReplacer = strings.NewReplacer("**", "", "__", "", "*", "", "_", " ")

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // format-specific, beats plaintext
}

// Normalise strips markdown formatting so chunks carry prose rather
// than markup. The first H1 becomes the title, falling back to a
// cleaned-up filename.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := string(raw.Content)

	doc := domain.Document{
		ID:         domain.NewDocumentID(raw.URI),
		URI:        raw.URI,
		SourceTag:  raw.SourceTag,
		Title:      title(text, raw.URI),
		Content:    strip(text),
		Format:     "markdown",
		Metadata:   map[string]any{"mime_type": raw.MIMEType},
		IngestedAt: time.Now(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// title returns the first H1 heading, or the filename without
// extension with separators turned into spaces.
func title(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	name := strings.TrimSuffix(filepath.Base(uri), filepath.Ext(uri))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// strip reduces markdown markup to plain text. Covers the common
// constructs; exotic extensions pass through untouched.
func strip(content string) string {
	for _, p := range stripPatterns {
		content = p.re.ReplaceAllString(content, p.replace)
	}
	content = emphasisReplacer.Replace(content)
	return strings.TrimSpace(content)
}
