package llm

import "context"

// Completion is the typed result of a completion call. A transport
// failure is an error from Complete; a response the model service
// accepted but that carries no usable text is a non-nil Completion
// whose Empty method reports true. Callers decide how to surface the
// two cases.
type Completion struct {
	Content string
}

// Empty reports whether the model returned no usable text.
func (c *Completion) Empty() bool {
	return c == nil || c.Content == ""
}

// Client abstracts single-turn LLM completions for testability.
type Client interface {
	// Complete sends a prompt and waits for the full response,
	// honoring ctx cancellation and deadlines.
	Complete(ctx context.Context, prompt string) (*Completion, error)
}
