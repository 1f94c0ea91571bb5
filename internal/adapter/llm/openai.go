package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/llmjson"
)

const jsonResponseType = "json_object"

// OpenAIConfig configures an OpenAI-compatible chat-completions tier.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // e.g. https://api.openai.com/v1
	Model   string
}

// OpenAI is a TextGenerator backed by any OpenAI-compatible
// /chat/completions endpoint. Each Generate call is a single request.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI tier. A nil httpClient uses http.DefaultClient;
// callers bound latency through the request context.
func NewOpenAI(cfg OpenAIConfig, httpClient *http.Client) (*OpenAI, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, errors.New("llm.NewOpenAI: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm.NewOpenAI: model required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OpenAI{cfg: cfg, httpClient: httpClient}, nil
}

func (c *OpenAI) Name() string { return "openai:" + c.cfg.Model }

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one chat-completions request and returns the first
// non-empty message content.
func (c *OpenAI) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	payload := chatCompletionRequest{Model: c.cfg.Model, Temperature: 0}
	if s := strings.TrimSpace(p.System); s != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: s})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: p.User})
	if p.JSON {
		payload.ResponseFormat = map[string]string{"type": jsonResponseType}
	}

	completion, body, err := c.send(ctx, payload)
	if err != nil {
		return "", err
	}

	var finishReason, refusal string
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
		if finishReason == "" {
			finishReason = choice.FinishReason
		}
		if refusal == "" {
			refusal = choice.Message.Refusal
		}
	}
	return "", &EmptyContentError{
		Provider:     c.Name(),
		FinishReason: finishReason,
		Refusal:      refusal,
		Snippet:      llmjson.Snippet(string(body)),
	}
}

func (c *OpenAI) send(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "chat/completions")
	if err != nil {
		return completion, nil, fmt.Errorf("openai request: build url: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("openai request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("openai request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("openai request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return completion, body, &StatusError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Body:       llmjson.Snippet(string(body)),
		}
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("openai request: decode response: %w", err)
	}
	if completion.Error != nil {
		return completion, body, fmt.Errorf("openai request: api error: %s", strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}
