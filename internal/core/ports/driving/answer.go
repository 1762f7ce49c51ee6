package driving

import (
	"context"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

// AnswerOptions configures one question-answering call.
type AnswerOptions struct {
	// SessionID is an optional caller-supplied session identifier,
	// echoed back on the Answer. No conversation state is kept.
	SessionID string
}

// AnswerService answers natural-language questions grounded in the
// indexed corpus.
type AnswerService interface {
	// Answer runs the retrieval pipeline for the question and returns
	// a grounded answer with citations. The question must be non-empty
	// after trimming; otherwise the call fails with
	// domain.ErrInvalidInput before any retrieval work begins.
	// Pipeline failures carry the failing stage via *domain.StageError.
	Answer(ctx context.Context, question string, opts AnswerOptions) (*domain.Answer, error)
}
