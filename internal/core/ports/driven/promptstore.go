package driven

// Prompt names understood by the PromptStore.
const (
	// PromptAnswerSystem frames the generative model: answer from the
	// provided context only, admit when the context is insufficient.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser is the question + context template. Placeholders:
	// %s question, %s assembled context.
	PromptAnswerUser = "answer_user"
)

// PromptStore loads prompt templates, allowing users to customise the
// generation behaviour without rebuilding.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cache, forcing fresh loads from disk.
	Reload()

	// Dir returns the prompt directory path.
	Dir() string
}
