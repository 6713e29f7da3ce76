package llm

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"shopmate/internal/chat"
)

// maxAttempts bounds the total number of calls, not the number of retries.
const maxAttempts = 3

// retryBuffer is added on top of any server-advertised delay so the retry
// lands just after the window reopens rather than just before.
const retryBuffer = time.Second

var delayPattern = regexp.MustCompile(`(?i)retry in\s+(\d+(?:\.\d+)?)\s*(ms|milliseconds?|s|secs?|seconds?|m|mins?|minutes?|h|hours?)\b`)

var rateLimitMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"too many requests",
	"quota",
	"resource_exhausted",
}

// withRetry runs op up to maxAttempts times, sleeping between attempts only
// when the failure is a rate limit. Any other error, or a rate limit after
// the final attempt, propagates unchanged.
func withRetry(ctx context.Context, op func() (*chat.Message, error)) (*chat.Message, error) {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var msg *chat.Message
		msg, err = op()
		if err == nil {
			return msg, nil
		}
		if !isRateLimited(err) || attempt == maxAttempts-1 {
			return nil, err
		}

		delay := retryDelay(err.Error(), attempt)
		slog.Warn("llm: rate limited, backing off",
			"attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryDelay prefers a delay the backend spelled out in the error message
// ("retry in 2 minutes", "retry in 500ms") plus a safety buffer, and falls
// back to exponential backoff starting at one second.
func retryDelay(msg string, attempt int) time.Duration {
	if m := delayPattern.FindStringSubmatch(msg); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return time.Duration(value*float64(unitDuration(m[2]))) + retryBuffer
		}
	}
	return time.Second << attempt
}

func unitDuration(unit string) time.Duration {
	switch strings.ToLower(unit)[0] {
	case 'h':
		return time.Hour
	case 's':
		return time.Second
	default:
		// "m" alone is minutes; "ms", "milliseconds" start with 'm' too,
		// so check the prefix before deciding.
		if strings.HasPrefix(strings.ToLower(unit), "ms") || strings.HasPrefix(strings.ToLower(unit), "milli") {
			return time.Millisecond
		}
		return time.Minute
	}
}
