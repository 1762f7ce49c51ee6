// Package tei provides a reranker adapter for text-embeddings-inference
// compatible /rerank endpoints.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8081"
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the reranker service.
type Config struct {
	// BaseURL is the reranker API base URL (default: http://localhost:8081).
	BaseURL string

	// Model is the cross-encoder model name, reported for diagnostics.
	Model string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Reranker scores (query, passage) pairs via an HTTP cross-encoder.
type Reranker struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the /rerank request format.
type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

// rerankResult is one scored entry of the /rerank response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// NewReranker creates a new cross-encoder reranker.
func NewReranker(cfg Config) *Reranker {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Rerank scores each candidate against the query and returns the top-n
// by relevance. Ties are broken by the original similarity, then by
// chunk ID, so the ordering is stable for identical input.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.RetrievalCandidate, topN int) ([]domain.RerankedCandidate, error) {
	if len(candidates) == 0 || topN < 1 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Content
	}

	scores, err := r.score(ctx, query, texts)
	if err != nil {
		return nil, err
	}

	reranked := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		reranked[i] = domain.RerankedCandidate{
			Chunk:      c.Chunk,
			Document:   c.Document,
			Similarity: c.Similarity,
			Relevance:  scores[i],
		}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		if reranked[i].Relevance != reranked[j].Relevance {
			return reranked[i].Relevance > reranked[j].Relevance
		}
		if reranked[i].Similarity != reranked[j].Similarity {
			return reranked[i].Similarity > reranked[j].Similarity
		}
		return reranked[i].Chunk.ID < reranked[j].Chunk.ID
	})

	if topN < len(reranked) {
		reranked = reranked[:topN]
	}
	return reranked, nil
}

// score calls the /rerank endpoint and returns a relevance score per
// input text, in input order.
func (r *Reranker) score(ctx context.Context, query string, texts []string) ([]float64, error) {
	reqBody := rerankRequest{
		Query: query,
		Texts: texts,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("%w: reranker status %d", domain.ErrRerankerUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: reranker status %d: %s", domain.ErrRerankerUnavailable, resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRerankerUnavailable, err)
	}

	scores := make([]float64, len(texts))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, fmt.Errorf("%w: result index %d out of range", domain.ErrRerankerUnavailable, res.Index)
		}
		scores[res.Index] = res.Score
	}
	return scores, nil
}

// ModelName returns the cross-encoder model name.
func (r *Reranker) ModelName() string {
	return r.model
}

// Ping validates the service is reachable by checking the /health endpoint.
func (r *Reranker) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("reranker: failed to create ping request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: reranker ping: %v", domain.ErrRerankerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: reranker status %d", domain.ErrRerankerUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (r *Reranker) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// mapTransportError distinguishes timeouts from other transport failures.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: reranker: %v", domain.ErrServiceTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: reranker: %v", domain.ErrServiceTimeout, err)
	}
	return fmt.Errorf("%w: reranker: %v", domain.ErrRerankerUnavailable, err)
}
