// Package services implements the driving port interfaces.
// Services contain the retrieval pipeline's business logic and
// orchestrate calls to driven ports (adapters): normalisation,
// chunking, embedding, vector search, reranking and generation.
//
// Services hold no durable state of their own; the vector index is
// the only durable resource and is owned by its adapter.
package services
