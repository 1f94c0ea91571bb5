package domain

import "context"

// Prompt is one request to a language model.
type Prompt struct {
	System string
	User   string
	// JSON asks the model for a JSON-only response.
	JSON bool
}

// TextGenerator is a single language-model tier.
type TextGenerator interface {
	// Name identifies the tier in logs and metrics, e.g. "gemini:gemini-2.5-flash".
	Name() string

	// Generate returns the model's raw text. JSON responses may still arrive
	// wrapped in markdown code fences; callers strip them.
	Generate(ctx context.Context, p Prompt) (string, error)
}
