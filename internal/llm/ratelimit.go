package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedClient spaces out calls to the wrapped client.
type rateLimitedClient struct {
	next    LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient allows at most perMinute Generate calls per minute,
// with a burst of one. Waiting honours ctx; a cancelled wait is reported as
// ErrBackendRateLimited without reaching the backend. A perMinute of zero
// or less returns next unchanged.
func NewRateLimitedClient(next LLMClient, perMinute int) LLMClient {
	if perMinute <= 0 {
		return next
	}
	return &rateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (c *rateLimitedClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ErrBackendRateLimited
	}
	return c.next.Generate(ctx, req)
}

func (c *rateLimitedClient) Available(ctx context.Context) bool {
	return c.next.Available(ctx)
}
