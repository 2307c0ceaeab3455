package anthropic_test

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recon-cli/internal/resilience"
	anthropicpkg "github.com/sells-group/recon-cli/pkg/anthropic"
	anthropicmocks "github.com/sells-group/recon-cli/pkg/anthropic/mocks"
)

func TestUsageTracker_AccumulatesPerModel(t *testing.T) {
	inner := anthropicmocks.NewMockClient(t)
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropicpkg.MessageResponse{
			Content: []anthropicpkg.ContentBlock{{Text: "ok"}},
			Usage:   anthropicpkg.TokenUsage{InputTokens: 100, OutputTokens: 20},
		}, nil)

	tracker := anthropicpkg.NewUsageTracker(inner)

	ctx := context.Background()
	_, err := tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "haiku"})
	require.NoError(t, err)
	_, err = tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "haiku"})
	require.NoError(t, err)
	_, err = tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "sonnet"})
	require.NoError(t, err)

	usage := tracker.Snapshot()
	assert.Equal(t, int64(200), usage["haiku"].InputTokens)
	assert.Equal(t, int64(40), usage["haiku"].OutputTokens)
	assert.Equal(t, int64(100), usage["sonnet"].InputTokens)
}

func TestUsageTracker_Since(t *testing.T) {
	inner := anthropicmocks.NewMockClient(t)
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropicpkg.MessageResponse{
			Usage: anthropicpkg.TokenUsage{InputTokens: 50, OutputTokens: 10},
		}, nil)

	tracker := anthropicpkg.NewUsageTracker(inner)
	ctx := context.Background()

	_, err := tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "haiku"})
	require.NoError(t, err)

	before := tracker.Snapshot()

	_, err = tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "haiku"})
	require.NoError(t, err)
	_, err = tracker.CreateMessage(ctx, anthropicpkg.MessageRequest{Model: "sonnet"})
	require.NoError(t, err)

	delta := tracker.Since(before)
	assert.Equal(t, int64(50), delta["haiku"].InputTokens)
	assert.Equal(t, int64(50), delta["sonnet"].InputTokens)
	assert.Len(t, delta, 2)
}

func TestUsageTracker_ErrorNotCounted(t *testing.T) {
	inner := anthropicmocks.NewMockClient(t)
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, eris.New("api error"))

	tracker := anthropicpkg.NewUsageTracker(inner)

	_, err := tracker.CreateMessage(context.Background(), anthropicpkg.MessageRequest{Model: "haiku"})
	require.Error(t, err)
	assert.Empty(t, tracker.Snapshot())
}

func TestRetryClient_RetriesTransient(t *testing.T) {
	inner := anthropicmocks.NewMockClient(t)
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, resilience.NewTransientError(eris.New("overloaded"), 529)).Twice()
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(&anthropicpkg.MessageResponse{
			Content: []anthropicpkg.ContentBlock{{Text: "ok"}},
		}, nil).Once()

	client := anthropicpkg.NewRetryClient(inner, resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})

	resp, err := client.CreateMessage(context.Background(), anthropicpkg.MessageRequest{Model: "haiku"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	inner.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestRetryClient_DoesNotRetryPermanent(t *testing.T) {
	inner := anthropicmocks.NewMockClient(t)
	inner.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Return(nil, eris.New("invalid request")).Once()

	client := anthropicpkg.NewRetryClient(inner, resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	_, err := client.CreateMessage(context.Background(), anthropicpkg.MessageRequest{Model: "haiku"})
	require.Error(t, err)
	inner.AssertNumberOfCalls(t, "CreateMessage", 1)
}
