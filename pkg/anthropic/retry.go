package anthropic

import (
	"context"

	"github.com/sells-group/recon-cli/internal/resilience"
)

// retryClient wraps a Client with exponential-backoff retries on
// transient failures. Rate limits and server errors from the API are
// retried; malformed requests are not.
type retryClient struct {
	inner Client
	cfg   resilience.RetryConfig
}

// NewRetryClient returns a Client that retries transient CreateMessage
// failures according to cfg.
func NewRetryClient(inner Client, cfg resilience.RetryConfig) Client {
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	}
	return &retryClient{inner: inner, cfg: cfg}
}

func (c *retryClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	return resilience.Do(ctx, c.cfg, func(ctx context.Context) (*MessageResponse, error) {
		return c.inner.CreateMessage(ctx, req)
	})
}
