package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ansa-cli/internal/core/domain"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ansa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ansa-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// stopToken ends generation; the model is instructed to emit it and it
// is stripped from the final answer if echoed.
const stopToken = "<END>"

// AnswerService runs the grounded question-answering pipeline:
// embed the question, retrieve candidates, rerank, assemble a
// budget-fitted context, and generate an answer constrained to it.
type AnswerService struct {
	settings  driving.SettingsService
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	reranker  driven.Reranker
	generator driven.GenerationService
	prompts   driven.PromptStore
}

// NewAnswerService creates a new answer service.
// The reranker is optional (can be nil); without it candidates are
// ordered by vector similarity.
func NewAnswerService(
	settings driving.SettingsService,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	reranker driven.Reranker,
	generator driven.GenerationService,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		settings:  settings,
		embedder:  embedder,
		index:     index,
		reranker:  reranker,
		generator: generator,
		prompts:   prompts,
	}
}

// Answer answers the question grounded in the indexed corpus.
// An empty question fails with domain.ErrInvalidInput before any
// retrieval work; pipeline failures carry their stage via
// *domain.StageError.
func (s *AnswerService) Answer(ctx context.Context, question string, opts driving.AnswerOptions) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: configure an embedding provider with 'ansa settings set'", domain.ErrEmbeddingUnavailable)
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: configure a generation provider with 'ansa settings set'", domain.ErrGenerationUnavailable)
	}

	start := time.Now()

	logger.Section("Answer Pipeline")
	logger.Debug("Question: %q", question)

	settings, err := s.settings.Snapshot()
	if err != nil {
		return nil, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.NewStageError(domain.StageEmbedding, err)
	}
	logger.Debug("Query embedded: %d dimensions", len(vector))

	candidates, err := s.index.Query(ctx, vector, settings.Retrieval.RetrievalK)
	if err != nil {
		return nil, domain.NewStageError(domain.StageRetrieving, err)
	}
	logger.Debug("Retrieved %d candidates (k=%d)", len(candidates), settings.Retrieval.RetrievalK)

	if len(candidates) == 0 {
		logger.Info("No candidates retrieved, returning insufficient-context answer")
		return s.insufficientAnswer(sessionID, false, start), nil
	}

	ranked, degraded, err := s.rank(ctx, question, candidates, settings)
	if err != nil {
		return nil, err
	}

	bundle := assembleContext(ranked, settings.Retrieval.ContextBudget)
	if bundle.Empty() {
		logger.Info("No candidate fit the context budget, returning insufficient-context answer")
		return s.insufficientAnswer(sessionID, degraded, start), nil
	}

	text, err := s.generate(ctx, question, bundle, settings.Retrieval)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:              text,
		Citations:         bundle.Citations,
		ContextChunksUsed: len(bundle.Chunks),
		Degraded:          degraded,
		SessionID:         sessionID,
		Latency:           time.Since(start),
	}, nil
}

// rank orders the retrieval candidates for assembly. With a reachable
// reranker the cross-encoder relevance decides; when the reranker is
// unreachable the pipeline degrades to similarity ordering and flags
// it. Context cancellation is never treated as degradation.
func (s *AnswerService) rank(
	ctx context.Context,
	question string,
	candidates []domain.RetrievalCandidate,
	settings domain.AppSettings,
) ([]domain.RerankedCandidate, bool, error) {
	topN := settings.Retrieval.RerankTopN

	if s.reranker == nil || !settings.Reranker.Enabled {
		logger.Debug("Reranker disabled, using similarity ordering")
		return similarityRanking(candidates, topN), false, nil
	}

	ranked, err := s.reranker.Rerank(ctx, question, candidates, topN)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, false, domain.NewStageError(domain.StageReranking, err)
		}
		logger.Warn("Reranker unavailable, degrading to similarity ordering: %v", err)
		return similarityRanking(candidates, topN), true, nil
	}

	logger.Debug("Reranked to %d candidates (top_n=%d)", len(ranked), topN)
	return ranked, false, nil
}

// generate builds the prompt from the context bundle and invokes the
// generative model, then strips the stop token if the model echoed it.
func (s *AnswerService) generate(
	ctx context.Context,
	question string,
	bundle domain.ContextBundle,
	retrieval domain.RetrievalSettings,
) (string, error) {
	systemPrompt, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", domain.NewStageError(domain.StageAssembling, err)
	}
	userTemplate, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", domain.NewStageError(domain.StageAssembling, err)
	}

	passages := make([]string, len(bundle.Chunks))
	for i, chunk := range bundle.Chunks {
		passages[i] = chunk.Content
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userTemplate, question, strings.Join(passages, "\n\n---\n\n"))},
	}

	text, err := s.generator.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   retrieval.MaxTokens,
		Temperature: retrieval.Temperature,
		Stop:        []string{stopToken},
	})
	if err != nil {
		return "", domain.NewStageError(domain.StageGenerating, err)
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, stopToken, ""))
	return text, nil
}

// insufficientAnswer is the fixed no-context response. Generation is
// never invoked for it.
func (s *AnswerService) insufficientAnswer(sessionID string, degraded bool, start time.Time) *domain.Answer {
	return &domain.Answer{
		Text:      domain.InsufficientContextAnswer,
		Degraded:  degraded,
		SessionID: sessionID,
		Latency:   time.Since(start),
	}
}

// similarityRanking orders candidates by descending vector similarity,
// ties broken by chunk ID, and keeps the top n. The relevance score is
// set to the similarity so downstream reporting stays uniform.
func similarityRanking(candidates []domain.RetrievalCandidate, n int) []domain.RerankedCandidate {
	sorted := make([]domain.RetrievalCandidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		return sorted[i].Chunk.ID < sorted[j].Chunk.ID
	})

	if n > len(sorted) {
		n = len(sorted)
	}

	ranked := make([]domain.RerankedCandidate, n)
	for i := 0; i < n; i++ {
		ranked[i] = domain.RerankedCandidate{
			Chunk:      sorted[i].Chunk,
			Document:   sorted[i].Document,
			Relevance:  sorted[i].Similarity,
			Similarity: sorted[i].Similarity,
		}
	}
	return ranked
}
