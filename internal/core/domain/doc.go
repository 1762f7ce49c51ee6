// Package domain defines the core business entities for Ansa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested source document
//   - Chunk: An overlap-aware slice of a document, the unit of retrieval
//   - RetrievalCandidate / RerankedCandidate: per-query scored chunks
//   - ContextBundle: the budget-fitted passages handed to generation
//   - Answer: a grounded answer with citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
