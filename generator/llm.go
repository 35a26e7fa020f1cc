package generator

import "context"

// LLMClient abstracts the generation endpoint so it can be swapped or stubbed.
// Complete makes exactly one call; implementations never retry.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt, safety SafetyConfig) (string, error)
}

// LLMSettings is the provider-neutral configuration handed to constructors.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
