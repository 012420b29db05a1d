package llm

import (
	"context"
	"net/http"
	"time"
)

// ollamaClient implements LLMClient using the Ollama HTTP API.
type ollamaClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOllamaClient creates an LLMClient that talks to a local Ollama instance.
func NewOllamaClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &ollamaClient{
		cfg:      cfg,
		http:     newHTTPClient(),
		observer: observer,
	}
}

// ollamaRequest is the JSON body sent to POST /api/generate.
type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaResponse is the JSON body returned by POST /api/generate (non-streaming).
type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	params := resolveParams(c.cfg, req)

	ctx, cancel := context.WithTimeout(ctx, params.timeout)
	defer cancel()

	body := ollamaRequest{
		Model:  params.model,
		System: req.SystemPrompt,
		Prompt: req.UserPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: params.temperature,
			NumPredict:  params.maxTokens,
		},
	}
	if req.JSONMode {
		body.Format = "json"
	}

	var resp ollamaResponse
	err := postJSON(ctx, c.http, c.cfg.Endpoint+"/api/generate", nil, body, &resp)

	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Provider:  ProviderOllama,
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
		Text:        resp.Response,
		Model:       model,
		Temperature: params.temperature,
		LatencyMs:   latency,
	}, nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	return probe(ctx, c.http, c.cfg.Endpoint+"/api/tags", nil)
}
