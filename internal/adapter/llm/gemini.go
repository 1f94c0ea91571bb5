package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
)

// GeminiConfig configures a Gemini API tier.
type GeminiConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Gemini is a TextGenerator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini tier. No network call is made until Generate.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm.NewGemini: api key required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm.NewGemini: model required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("llm.NewGemini: %w", err)
	}
	return &Gemini{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

// Generate issues one GenerateContent call.
func (g *Gemini) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	gc := &genai.GenerateContentConfig{CandidateCount: 1}
	if s := strings.TrimSpace(p.System); s != "" {
		gc.SystemInstruction = genai.NewContentFromText(s, genai.RoleUser)
	}
	if p.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), gc)
	if err != nil {
		return "", g.classifyErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &EmptyContentError{Provider: g.Name(), FinishReason: finishReason(resp)}
	}
	return text, nil
}

// classifyErr turns API errors into StatusError so both tiers report
// failures the same way.
func (g *Gemini) classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: g.Name(), StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	return fmt.Errorf("%s: %w", g.Name(), err)
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}
