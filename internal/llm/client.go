package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// GenerateRequest holds the parameters for an LLM generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
	JSONMode     bool     // ask the backend for a JSON response when supported
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Text        string
	Model       string
	Temperature float64
	LatencyMs   int64
}

// LLMClient provides access to a language model for text generation.
type LLMClient interface {
	// Generate sends a prompt and returns the raw text response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Available checks whether the backend is reachable.
	Available(ctx context.Context) bool
}

// NewClient returns the LLMClient for the configured provider, wrapped in a
// rate limiter when RequestsPerMinute is set.
func NewClient(cfg LLMConfig, observer Observer) (LLMClient, error) {
	if observer == nil {
		observer = NoopObserver{}
	}

	var client LLMClient
	switch cfg.Provider {
	case ProviderOllama, "":
		client = NewOllamaClient(cfg, observer)
	case ProviderOpenAI:
		client = NewOpenAIClient(cfg, observer)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.RequestsPerMinute > 0 {
		client = NewRateLimitedClient(client, cfg.RequestsPerMinute)
	}
	return client, nil
}

// callParams is the resolved per-call configuration shared by providers.
type callParams struct {
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

func resolveParams(cfg LLMConfig, req GenerateRequest) callParams {
	taskCfg := cfg.Tasks[req.Task]
	p := callParams{
		model:       cfg.TaskModel(req.Task),
		temperature: taskCfg.Temperature,
		maxTokens:   taskCfg.MaxTokens,
		timeout:     time.Duration(cfg.TaskTimeout(req.Task)) * time.Millisecond,
	}
	if req.Temperature != nil {
		p.temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		p.maxTokens = *req.MaxTokens
	}
	return p
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
		},
	}
}

// postJSON sends body to url and decodes the JSON reply into out.
// Transport and status failures are mapped onto the package sentinels.
func postJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := hc.Do(httpReq)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return classifyTransportError(ctx, err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrBackendRateLimited, truncate(string(respBody), 200))
	case httpResp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, httpResp.StatusCode, truncate(string(respBody), 200))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}

func probe(ctx context.Context, hc *http.Client, url string, headers map[string]string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrBackendRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrBackendUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
