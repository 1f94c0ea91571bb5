package llm

import (
	"fmt"
	"strings"
)

// StatusError is a non-2xx answer from a model API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
}

// Transient reports whether the same request might succeed later.
func (e *StatusError) Transient() bool {
	return e.StatusCode == 408 || e.StatusCode == 429 || e.StatusCode >= 500
}

// EmptyContentError is a successful response that carried no text.
type EmptyContentError struct {
	Provider     string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *EmptyContentError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Provider, e.FinishReason, e.Refusal, e.Snippet)
}
