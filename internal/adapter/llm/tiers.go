package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/config"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

// NewTiers builds the configured model tiers in fallback order. The fallback
// tier is omitted when LLM_FALLBACK_PROVIDER is unset.
func NewTiers(ctx context.Context, cfg *config.Config) ([]domain.TextGenerator, error) {
	var tiers []domain.TextGenerator
	for _, t := range []config.LLMTier{cfg.LLMPrimary, cfg.LLMFallback} {
		if t.Provider == "" {
			continue
		}
		gen, err := newTier(ctx, cfg, t)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, gen)
	}
	return tiers, nil
}

func newTier(ctx context.Context, cfg *config.Config, t config.LLMTier) (domain.TextGenerator, error) {
	switch t.Provider {
	case config.ProviderGemini:
		return NewGemini(ctx, GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: t.Model})
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   t.Model,
		}, &http.Client{Timeout: cfg.LLMTimeout})
	default:
		return nil, fmt.Errorf("llm.NewTiers: unknown provider %q", t.Provider)
	}
}
