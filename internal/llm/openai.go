package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// openAIClient implements LLMClient against an OpenAI-compatible
// chat completions endpoint (OpenAI, DeepSeek, local gateways).
type openAIClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOpenAIClient creates an LLMClient for an OpenAI-compatible API.
// cfg.Endpoint is the API base URL, e.g. "https://api.openai.com/v1".
func NewOpenAIClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &openAIClient{
		cfg:      cfg,
		http:     newHTTPClient(),
		observer: observer,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) headers() map[string]string {
	if c.cfg.APIKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
}

func (c *openAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	params := resolveParams(c.cfg, req)

	ctx, cancel := context.WithTimeout(ctx, params.timeout)
	defer cancel()

	body := chatRequest{
		Model:       params.model,
		Temperature: params.temperature,
		MaxTokens:   params.maxTokens,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.UserPrompt})
	if req.JSONMode {
		body.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}

	var resp chatResponse
	err := postJSON(ctx, c.http, c.cfg.Endpoint+"/chat/completions", c.headers(), body, &resp)
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("%w: response has no choices", ErrBackendUnavailable)
	}

	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Provider:  ProviderOpenAI,
		Model:     params.model,
		LatencyMs: latency,
		Success:   err == nil,
		ErrorCode: errorCode(err),
	})
	if err != nil {
		return nil, err
	}

	model := resp.Model
	if model == "" {
		model = params.model
	}
	return &GenerateResponse{
		Text:        resp.Choices[0].Message.Content,
		Model:       model,
		Temperature: params.temperature,
		LatencyMs:   latency,
	}, nil
}

func (c *openAIClient) Available(ctx context.Context) bool {
	return probe(ctx, c.http, c.cfg.Endpoint+"/models", c.headers())
}
