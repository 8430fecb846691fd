package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenAIBase    = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAITimeout = 30 * time.Second
)

// OpenAIConfig configures the OpenAI-compatible adapter.
type OpenAIConfig struct {
	// APIKey is the bearer token for the API.
	APIKey string
	// BaseURL overrides the API endpoint (useful for local models).
	// Defaults to https://api.openai.com/v1.
	BaseURL string
	// Model is the default model when CompletionRequest.Model is empty.
	Model string
	// Timeout for each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// openAIProvider implements Provider using the chat completions API.
type openAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
}

// NewOpenAI returns a Provider backed by an OpenAI-compatible API.
func NewOpenAI(cfg OpenAIConfig) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOpenAITimeout
	}
	return &openAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- wire types (subset of the chat completions API) ---

type oaiRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a chat completion request.
func (p *openAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	messages := make([]oaiMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, oaiMessage{Role: string(m.Role), Content: m.Content})
	}

	data, err := json.Marshal(oaiRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if oaiResp.Error != nil {
		return nil, fmt.Errorf("openai error %s: %s", oaiResp.Error.Type, oaiResp.Error.Message)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response (status %d)", resp.StatusCode)
	}

	return &CompletionResponse{
		Text: oaiResp.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     oaiResp.Usage.PromptTokens,
			CompletionTokens: oaiResp.Usage.CompletionTokens,
			TotalTokens:      oaiResp.Usage.TotalTokens,
		},
	}, nil
}
