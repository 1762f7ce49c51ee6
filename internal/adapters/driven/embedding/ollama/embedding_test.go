package ollama

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbed_Success(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{3, 4}})
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 2})

	embedding, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, embedding, 2)

	// Vector (3,4) has norm 5; the adapter must return unit length.
	assert.InDelta(t, 0.6, embedding[0], 1e-6)
	assert.InDelta(t, 0.8, embedding[1], 1e-6)

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbed_ZeroVectorUnchanged(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0, 0, 0}})
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	embedding, err := svc.Embed(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, embedding)
}

func TestEmbed_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0}})
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	embedding, err := svc.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, embedding)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_FailsAfterRetry(t *testing.T) {
	var calls atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	_, err := svc.Embed(context.Background(), "doomed")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbed_ServerUnreachable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Embed(context.Background(), "nobody home")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Each text gets a distinct vector so ordering is observable.
		switch req.Prompt {
		case "first":
			json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1, 0}})
		case "second":
			json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0, 1}})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{1, 0}, embeddings[0])
	assert.Equal(t, []float32{0, 1}, embeddings[1])
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, embeddings)
}

func TestPing(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	svc := NewEmbeddingService(Config{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPing_Unavailable(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	err := svc.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestClose(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.NoError(t, svc.Close())
}
