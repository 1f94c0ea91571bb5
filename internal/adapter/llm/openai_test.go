package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestOpenAI_Generate(t *testing.T) {
	var got chatCompletionRequest
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"places\":[]}"},"finish_reason":"stop"}]}`))
	})

	out, err := c.Generate(context.Background(), domain.Prompt{System: "sys", User: "hello", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"places":[]}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, jsonResponseType, got.ResponseFormat["type"])
	assert.Equal(t, "openai:gpt-4o-mini", c.Name())
}

func TestOpenAI_Generate_NoSystemNoJSON(t *testing.T) {
	var got chatCompletionRequest
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	})

	_, err := c.Generate(context.Background(), domain.Prompt{User: "hello"})
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Nil(t, got.ResponseFormat)
}

func TestOpenAI_Generate_StatusError(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	_, err := c.Generate(context.Background(), domain.Prompt{User: "hello"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.True(t, statusErr.Transient())
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenAI_Generate_EmptyContent(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"no"},"finish_reason":"content_filter"}]}`))
	})

	_, err := c.Generate(context.Background(), domain.Prompt{User: "hello"})
	var emptyErr *EmptyContentError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "content_filter", emptyErr.FinishReason)
	assert.Equal(t, "no", emptyErr.Refusal)
}

func TestOpenAI_Generate_APIErrorBody(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
	})

	_, err := c.Generate(context.Background(), domain.Prompt{User: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestNewOpenAI_Validation(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{Model: "m"}, nil)
	require.Error(t, err)
	_, err = NewOpenAI(OpenAIConfig{APIKey: "k"}, nil)
	require.Error(t, err)

	c, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", c.cfg.BaseURL)
}

func TestStatusError_Transient(t *testing.T) {
	assert.True(t, (&StatusError{StatusCode: 503}).Transient())
	assert.True(t, (&StatusError{StatusCode: 408}).Transient())
	assert.False(t, (&StatusError{StatusCode: 401}).Transient())
}
