// Package normalisers provides implementations of the Normaliser interface
// for the corpus document formats. Each normaliser knows how to extract
// text content (and page structure, where the format has one) from a
// specific MIME type.
//
// Normalisers are registered with the Registry at startup; the registry
// dispatches by MIME type and priority.
package normalisers
