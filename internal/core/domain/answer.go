package domain

import (
	"fmt"
	"time"
)

// DocumentRef carries the citation fields of a chunk's owning document.
type DocumentRef struct {
	// ID is the document identifier.
	ID string

	// URI is the document's source location.
	URI string

	// Title is the human-readable title.
	Title string

	// SourceTag groups documents from one ingestion source.
	SourceTag string
}

// RetrievalCandidate is a chunk with its vector similarity score,
// produced by the Vector Index. Ephemeral; exists only within one
// query's lifetime.
type RetrievalCandidate struct {
	// Chunk is the retrieved chunk, hydrated with metadata.
	Chunk Chunk

	// Document references the owning document for citations.
	Document DocumentRef

	// Similarity is the cosine similarity to the query vector (0-1
	// for unit-norm vectors).
	Similarity float64
}

// RerankedCandidate is a chunk with its cross-encoder relevance score.
// The relevance score supersedes the similarity score for final ordering.
type RerankedCandidate struct {
	// Chunk is the candidate chunk.
	Chunk Chunk

	// Document references the owning document for citations.
	Document DocumentRef

	// Relevance is the cross-encoder score for the (query, chunk) pair.
	Relevance float64

	// Similarity is the original vector similarity, kept for
	// deterministic tie-breaking and reporting.
	Similarity float64
}

// Citation identifies the provenance of one included context passage.
type Citation struct {
	// Source is the document URI.
	Source string `json:"source"`

	// Title is the document title.
	Title string `json:"title"`

	// Page is the 1-based page number, 0 when the format has no pages.
	Page int `json:"page,omitempty"`

	// Ordinal is the chunk's position within its document.
	Ordinal int `json:"ordinal"`

	// ChunkID identifies the cited chunk.
	ChunkID string `json:"chunk_id"`
}

// ContextBundle is the ordered, budget-fitted set of passages handed to
// the generative model. Ephemeral; one per query.
type ContextBundle struct {
	// Chunks are the selected chunks in rank order.
	Chunks []Chunk

	// Citations lists provenance in inclusion order, parallel to Chunks.
	Citations []Citation

	// TokensUsed is the approximate token count consumed by the
	// included passages.
	TokensUsed int

	// Budget is the token budget the bundle was assembled against.
	Budget int
}

// Empty returns true when no candidate fit the budget or none existed.
// An empty bundle is a valid state meaning "no relevant context"; the
// synthesizer must not invoke generation with it.
func (b ContextBundle) Empty() bool {
	return len(b.Chunks) == 0
}

// Answer is the result of one grounded question-answering call.
type Answer struct {
	// Text is the generated answer, or the fixed insufficient-
	// information response when no context was available.
	Text string `json:"answer"`

	// Citations lists the sources of the context actually used.
	Citations []Citation `json:"citations"`

	// ContextChunksUsed is the number of chunks included in the prompt.
	ContextChunksUsed int `json:"context_chunks_used"`

	// Degraded is true when the reranker was unavailable and the
	// similarity ordering was used instead.
	Degraded bool `json:"degraded,omitempty"`

	// SessionID echoes the caller's session identifier, if any.
	SessionID string `json:"session_id,omitempty"`

	// Latency is the wall-clock duration of the whole pipeline.
	Latency time.Duration `json:"latency"`
}

// InsufficientContextAnswer is the fixed response returned when the
// context bundle is empty. Generation is never invoked in that case.
const InsufficientContextAnswer = "I don't have enough information in the indexed documents to answer that."

// Stage identifies a step of the answer pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageEmbedding  Stage = "embedding"
	StageRetrieving Stage = "retrieving"
	StageReranking  Stage = "reranking"
	StageAssembling Stage = "assembling"
	StageGenerating Stage = "generating"
)

// StageError attributes a pipeline failure to the stage it occurred in.
// Failures surface immediately; no stage retries beyond the bounded
// retry inside the embedding and generation adapters.
type StageError struct {
	// Stage is where the pipeline failed.
	Stage Stage

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it occurred in.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
