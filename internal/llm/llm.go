// Package llm adapts the backend-neutral chat vocabulary to concrete model
// APIs. Two backends are wired: OpenAI (native token deltas and streamed
// tool-call fragments) and Anthropic (whole-block streaming, calls wrapped
// in the rate-limit retry policy).
package llm

import (
	"context"

	"shopmate/internal/chat"
)

// Provider is a stateless chat backend. The full transcript is re-sent on
// every call; no conversation state is carried between calls.
type Provider interface {
	// Chat returns the assistant's next message, which may request tool calls.
	Chat(ctx context.Context, msgs []chat.Message, tools []chat.Tool) (*chat.Message, error)

	// ChatStream behaves like Chat but additionally invokes onText once per
	// incremental piece of textual output before returning the aggregated
	// final message. Chunk granularity is backend-dependent: per token for
	// backends with native deltas, per content block otherwise.
	ChatStream(ctx context.Context, msgs []chat.Message, tools []chat.Tool, onText func(string)) (*chat.Message, error)
}
