package domain

import "time"

// DocumentError records a per-document ingestion failure. One bad
// document never aborts the batch; failures are collected and reported.
type DocumentError struct {
	// URI is the failing document's location.
	URI string `json:"uri"`

	// Err is the underlying cause.
	Err error `json:"-"`

	// Message is the human-readable failure description.
	Message string `json:"error"`
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the ingestion run.
	RunID string `json:"run_id"`

	// DocumentsProcessed is the number of documents successfully
	// chunked, embedded and indexed.
	DocumentsProcessed int `json:"documents_processed"`

	// DocumentsEmpty is the number of documents that yielded no chunks
	// (empty after extraction). Reported, not treated as failure.
	DocumentsEmpty int `json:"documents_empty"`

	// ChunksCreated is the total number of chunks indexed.
	ChunksCreated int `json:"chunks_created"`

	// Errors collects per-document failures.
	Errors []DocumentError `json:"errors,omitempty"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// IndexStats describes the durable state of the vector index.
// After a clean restart with no ingestion in between, Stats must
// return identical counts.
type IndexStats struct {
	// TotalChunks is the number of index entries.
	TotalChunks int `json:"total_chunks"`

	// TotalDocuments is the number of distinct documents represented.
	TotalDocuments int `json:"total_documents"`

	// Dimensions is the index's fixed vector dimensionality.
	Dimensions int `json:"dimensions"`
}
