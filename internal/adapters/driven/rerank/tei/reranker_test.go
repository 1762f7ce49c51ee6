package tei

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func candidate(id string, similarity float64) domain.RetrievalCandidate {
	return domain.RetrievalCandidate{
		Chunk: domain.Chunk{
			ID:      id,
			Content: "passage " + id,
		},
		Document:   domain.DocumentRef{ID: "doc", URI: "/doc.txt"},
		Similarity: similarity,
	}
}

func TestNewReranker_Defaults(t *testing.T) {
	reranker := NewReranker(Config{})
	assert.Equal(t, DefaultModel, reranker.ModelName())
}

func TestRerank_SortsByRelevance(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how does sync work", req.Query)
		require.Len(t, req.Texts, 3)

		// Middle passage scores highest.
		w.Write([]byte(`[{"index":0,"score":0.2},{"index":1,"score":0.9},{"index":2,"score":0.5}]`))
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	candidates := []domain.RetrievalCandidate{
		candidate("d:0", 0.8),
		candidate("d:1", 0.7),
		candidate("d:2", 0.6),
	}

	result, err := reranker.Rerank(context.Background(), "how does sync work", candidates, 3)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "d:1", result[0].Chunk.ID)
	assert.Equal(t, "d:2", result[1].Chunk.ID)
	assert.Equal(t, "d:0", result[2].Chunk.ID)

	// Original similarity is carried through for the degrade path.
	assert.InDelta(t, 0.7, result[0].Similarity, 1e-9)
	assert.InDelta(t, 0.9, result[0].Relevance, 1e-9)
}

func TestRerank_TruncatesToTopN(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"index":0,"score":0.1},{"index":1,"score":0.3},{"index":2,"score":0.2}]`))
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	candidates := []domain.RetrievalCandidate{
		candidate("d:0", 0.8),
		candidate("d:1", 0.7),
		candidate("d:2", 0.6),
	}

	result, err := reranker.Rerank(context.Background(), "q", candidates, 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "d:1", result[0].Chunk.ID)
	assert.Equal(t, "d:2", result[1].Chunk.ID)
}

func TestRerank_TopNLargerThanCandidates(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"index":0,"score":0.5}]`))
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	result, err := reranker.Rerank(context.Background(), "q", []domain.RetrievalCandidate{candidate("d:0", 0.8)}, 5)
	require.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestRerank_TieBreaks(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		// Equal relevance forces similarity then chunk ID ordering.
		w.Write([]byte(`[{"index":0,"score":0.5},{"index":1,"score":0.5},{"index":2,"score":0.5}]`))
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	candidates := []domain.RetrievalCandidate{
		candidate("d:2", 0.6),
		candidate("d:1", 0.9),
		candidate("d:0", 0.6),
	}

	result, err := reranker.Rerank(context.Background(), "q", candidates, 3)
	require.NoError(t, err)
	require.Len(t, result, 3)

	// Highest similarity first, then chunk ID for the 0.6 pair.
	assert.Equal(t, "d:1", result[0].Chunk.ID)
	assert.Equal(t, "d:0", result[1].Chunk.ID)
	assert.Equal(t, "d:2", result[2].Chunk.ID)
}

func TestRerank_EmptyCandidates(t *testing.T) {
	reranker := NewReranker(Config{BaseURL: "http://127.0.0.1:1"})

	result, err := reranker.Rerank(context.Background(), "q", nil, 3)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRerank_ServerUnreachable(t *testing.T) {
	reranker := NewReranker(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := reranker.Rerank(context.Background(), "q", []domain.RetrievalCandidate{candidate("d:0", 0.5)}, 1)
	assert.ErrorIs(t, err, domain.ErrRerankerUnavailable)
}

func TestRerank_ServerError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	_, err := reranker.Rerank(context.Background(), "q", []domain.RetrievalCandidate{candidate("d:0", 0.5)}, 1)
	assert.ErrorIs(t, err, domain.ErrRerankerUnavailable)
}

func TestRerank_BadIndex(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"index":7,"score":0.5}]`))
	})

	reranker := NewReranker(Config{BaseURL: server.URL})

	_, err := reranker.Rerank(context.Background(), "q", []domain.RetrievalCandidate{candidate("d:0", 0.5)}, 1)
	assert.ErrorIs(t, err, domain.ErrRerankerUnavailable)
}

func TestPing(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	reranker := NewReranker(Config{BaseURL: server.URL})
	assert.NoError(t, reranker.Ping(context.Background()))
}

func TestClose(t *testing.T) {
	reranker := NewReranker(Config{})
	assert.NoError(t, reranker.Close())
}
