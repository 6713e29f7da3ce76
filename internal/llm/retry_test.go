package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopmate/internal/chat"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		attempt int
		want    time.Duration
	}{
		{
			name: "advertised minutes",
			msg:  "429: rate limit exceeded, retry in 2 minutes",
			want: 2*time.Minute + time.Second,
		},
		{
			name: "advertised milliseconds",
			msg:  "rate_limit_error: retry in 500ms",
			want: 500*time.Millisecond + time.Second,
		},
		{
			name: "advertised seconds",
			msg:  "too many requests, retry in 30 seconds",
			want: 30*time.Second + time.Second,
		},
		{
			name: "fractional value",
			msg:  "quota exhausted, retry in 1.5s",
			want: 1500*time.Millisecond + time.Second,
		},
		{
			name: "bare m means minutes",
			msg:  "retry in 1m",
			want: time.Minute + time.Second,
		},
		{
			name:    "no advertised delay falls back to backoff",
			msg:     "429 too many requests",
			attempt: 0,
			want:    time.Second,
		},
		{
			name:    "backoff doubles per attempt",
			msg:     "429 too many requests",
			attempt: 2,
			want:    4 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryDelay(tt.msg, tt.attempt))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  string
		want bool
	}{
		{"429 Too Many Requests", true},
		{"rate limit exceeded", true},
		{"rate_limit_error", true},
		{"monthly quota exceeded", true},
		{"RESOURCE_EXHAUSTED", true},
		{"connection refused", false},
		{"invalid api key", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isRateLimited(errors.New(tt.err)), tt.err)
	}
}

func TestWithRetrySucceedsAfterRateLimit(t *testing.T) {
	calls := 0
	msg, err := withRetry(context.Background(), func() (*chat.Message, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("429: retry in 1ms")
		}
		return &chat.Message{Role: chat.RoleAssistant, Content: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ok", msg.Content)
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), func() (*chat.Message, error) {
		calls++
		return nil, errors.New("429: retry in 1ms")
	})
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), func() (*chat.Message, error) {
		calls++
		return nil, errors.New("invalid api key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-rate-limit errors must not be retried")
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := withRetry(ctx, func() (*chat.Message, error) {
		return nil, errors.New("429: retry in 10 seconds")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
