package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/config"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{APIKey: "gm-test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)
	return g
}

func TestGemini_Generate(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"is_duplicate\":false,\"matched_index\":null}"}]},"finishReason":"STOP"}]}`))
	})

	out, err := g.Generate(context.Background(), domain.Prompt{System: "sys", User: "hello", JSON: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_duplicate":false,"matched_index":null}`, out)
	assert.Equal(t, "gemini:gemini-2.5-flash", g.Name())
}

func TestGemini_Generate_APIError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := g.Generate(context.Background(), domain.Prompt{User: "hello"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 429, statusErr.StatusCode)
}

func TestGemini_ClassifyErr(t *testing.T) {
	g := &Gemini{model: "m"}

	var statusErr *StatusError
	require.ErrorAs(t, g.classifyErr(genai.APIError{Code: 500, Message: "boom"}), &statusErr)
	assert.True(t, statusErr.Transient())

	cause := errors.New("dial tcp: connection refused")
	err := g.classifyErr(cause)
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.As(err, &statusErr))
}

func TestNewGemini_Validation(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{Model: "m"})
	require.Error(t, err)
	_, err = NewGemini(context.Background(), GeminiConfig{APIKey: "k"})
	require.Error(t, err)
}

func TestNewTiers(t *testing.T) {
	cfg := &config.Config{
		LLMPrimary:   config.LLMTier{Provider: config.ProviderGemini, Model: "gemini-2.5-flash"},
		LLMFallback:  config.LLMTier{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"},
		GeminiAPIKey: "gm",
		OpenAIAPIKey: "sk",
	}
	tiers, err := NewTiers(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Equal(t, "gemini:gemini-2.5-flash", tiers[0].Name())
	assert.Equal(t, "openai:gpt-4o-mini", tiers[1].Name())

	cfg.LLMFallback = config.LLMTier{}
	tiers, err = NewTiers(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, tiers, 1)

	cfg.LLMPrimary.Provider = "mystery"
	_, err = NewTiers(context.Background(), cfg)
	assert.Error(t, err)
}
