package anthropic

import (
	"context"
	"sync"
)

// UsageTracker wraps a Client and accumulates token usage per model
// across every CreateMessage call. Safe for concurrent use; batch runs
// share one tracker across invoice goroutines.
type UsageTracker struct {
	inner Client

	mu    sync.Mutex
	usage map[string]TokenUsage
}

// NewUsageTracker returns a tracking wrapper around inner.
func NewUsageTracker(inner Client) *UsageTracker {
	return &UsageTracker{
		inner: inner,
		usage: make(map[string]TokenUsage),
	}
}

func (t *UsageTracker) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	resp, err := t.inner.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	u := t.usage[req.Model]
	u.Add(resp.Usage)
	t.usage[req.Model] = u
	t.mu.Unlock()

	return resp, nil
}

// Snapshot returns a copy of the accumulated per-model usage.
func (t *UsageTracker) Snapshot() map[string]TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]TokenUsage, len(t.usage))
	for model, u := range t.usage {
		out[model] = u
	}
	return out
}

// Since returns the per-model usage accumulated after the given
// snapshot, for per-run accounting against a shared tracker.
func (t *UsageTracker) Since(snapshot map[string]TokenUsage) map[string]TokenUsage {
	current := t.Snapshot()
	out := make(map[string]TokenUsage, len(current))
	for model, u := range current {
		prev := snapshot[model]
		delta := TokenUsage{
			InputTokens:  u.InputTokens - prev.InputTokens,
			OutputTokens: u.OutputTokens - prev.OutputTokens,
		}
		if delta.InputTokens != 0 || delta.OutputTokens != 0 {
			out[model] = delta
		}
	}
	return out
}
