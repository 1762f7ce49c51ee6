// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Extracts text and page metadata from raw documents
//   - NormaliserRegistry: Selects the appropriate normaliser per format
//   - PostProcessor / PostProcessorPipeline: Chunking of extracted text
//   - VectorIndex: Durable vector storage and similarity search
//   - EmbeddingService: Maps text to unit-norm vectors
//   - GenerationService: Invokes the generative model
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Reranker: Cross-encoder reranking. Without it (or when it fails),
//     the query pipeline falls back to similarity ordering and the
//     result is flagged as degraded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
