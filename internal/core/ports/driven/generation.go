package driven

import "context"

// GenerationService invokes the generative model that produces answers.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Ollama (local models)
type GenerationService interface {
	// Chat conducts a single completion over the given messages.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the generative model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour. Retry count, backoff and
// timeout are explicit here rather than implicit adapter behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// Stop are sequences that end generation when encountered.
	Stop []string
}
