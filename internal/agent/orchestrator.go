package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"shopmate/internal/chat"
	"shopmate/internal/llm"
	"shopmate/internal/trace"
)

// maxIterations caps the number of model calls per user turn so a model that
// keeps requesting tools cannot loop forever.
const maxIterations = 5

// historyWindow bounds how many prior messages are re-sent to the model.
const historyWindow = 10

const apologyText = "I wasn't able to finish working through that request. " +
	"Could you try again, or ask something more specific?"

const customerPrompt = `You are Shopmate, a shopping assistant for an outdoor gear store.
Help the customer find products, check their orders and cart, and understand their spending.
Use the available tools to look up real data; never invent products, prices or order details.
Keep answers short and concrete.`

const adminPrompt = customerPrompt + `

The caller is a store administrator. You may additionally use admin tools such as the
sales dashboard to report revenue, order volume and top-selling products.`

// RemoteTools is the slice of the remote tool gateway the orchestrator
// needs. Nil means the deployment runs with local tools only.
type RemoteTools interface {
	ListTools(role chat.Caller) []chat.Tool
	Has(name string) bool
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Orchestrator drives the bounded request/response/tool-execution cycle and
// emits a single ordered stream of chunks per user turn.
type Orchestrator struct {
	provider llm.Provider
	registry *Registry
	remote   RemoteTools
}

type Option func(*Orchestrator)

// WithRemoteTools routes unmatched tool names to the remote gateway.
func WithRemoteTools(rt RemoteTools) Option {
	return func(o *Orchestrator) { o.remote = rt }
}

func NewOrchestrator(provider llm.Provider, registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{provider: provider, registry: registry}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes one user turn. The chunk sequence passed to emit is
// append-only and terminates with exactly one done chunk (success, including
// the iteration-cap fallback) or one error chunk (fatal, such as a provider
// failure after retry exhaustion).
func (o *Orchestrator) Run(ctx context.Context, role chat.Caller, userID int64, message string, history []chat.Message, emit func(chat.Chunk)) error {
	if message == "" {
		return fmt.Errorf("empty message")
	}

	ctx = ContextWithRole(ctx, role)
	ctx = ContextWithUser(ctx, userID)

	ctx, span := trace.Tracer().Start(ctx, "agent.run",
		oteltrace.WithAttributes(
			attribute.String("shopmate.role", string(role)),
		),
	)
	defer span.End()

	transcript := make([]chat.Message, 0, len(history)+2)
	transcript = append(transcript, chat.Message{Role: chat.RoleSystem, Content: systemPrompt(role)})
	transcript = append(transcript, window(history)...)
	transcript = append(transcript, chat.Message{Role: chat.RoleUser, Content: message})

	tools := o.registry.List(role)
	if o.remote != nil {
		tools = append(tools, o.remote.ListTools(role)...)
	}

	for iteration := 0; iteration < maxIterations; iteration++ {
		llmCtx, llmSpan := trace.Tracer().Start(ctx, "agent.llm",
			oteltrace.WithAttributes(attribute.Int("agent.iteration", iteration)),
		)

		// Buffer the turn's text and replay it below. This keeps one uniform
		// contract across backends that stream token deltas and backends
		// that only produce whole-turn chunks.
		var buffered []string
		resp, err := o.provider.ChatStream(llmCtx, transcript, tools, func(text string) {
			buffered = append(buffered, text)
		})
		if err != nil {
			llmSpan.RecordError(err)
			llmSpan.SetStatus(codes.Error, err.Error())
			llmSpan.End()
			span.RecordError(err)
			emit(chat.Chunk{Type: chat.ChunkError, Data: err.Error()})
			return err
		}
		llmSpan.End()

		for _, text := range buffered {
			emit(chat.Chunk{Type: chat.ChunkText, Data: text})
		}

		// No tool calls: the model answered naturally.
		if len(resp.ToolCalls) == 0 {
			emit(chat.Chunk{Type: chat.ChunkDone})
			return nil
		}

		transcript = append(transcript, *resp)
		transcript = append(transcript, o.dispatch(ctx, role, resp.ToolCalls, emit)...)
	}

	// Cap reached while the model was still requesting tools. Degrade
	// gracefully rather than truncating mid-call.
	slog.Warn("iteration cap reached", "cap", maxIterations, "role", role)
	emit(chat.Chunk{Type: chat.ChunkText, Data: apologyText})
	emit(chat.Chunk{Type: chat.ChunkDone})
	return nil
}

// dispatch executes one turn's tool calls and returns the tool messages to
// append to the transcript. Calls run concurrently (every handler is a read
// query) but chunks and transcript entries keep the model's call order so
// every tool call id is answered before the next model call.
func (o *Orchestrator) dispatch(ctx context.Context, role chat.Caller, calls []chat.ToolCall, emit func(chat.Chunk)) []chat.Message {
	for _, call := range calls {
		emit(chat.Chunk{Type: chat.ChunkToolCall, Data: call})
	}

	results := make([]*Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call chat.ToolCall) {
			defer wg.Done()
			results[i] = o.execute(ctx, role, call)
		}(i, call)
	}
	wg.Wait()

	messages := make([]chat.Message, 0, len(calls))
	for i, call := range calls {
		emit(chat.Chunk{Type: chat.ChunkToolResult, Data: chat.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    results[i].Content,
		}})
		if len(results[i].Chart) > 0 {
			emit(chat.Chunk{Type: chat.ChunkChart, Data: results[i].Chart})
		}
		messages = append(messages, chat.Message{
			Role:       chat.RoleTool,
			Content:    results[i].Content,
			ToolCallID: call.ID,
		})
	}
	return messages
}

// execute routes one call: local registry first, then the remote gateway.
// Every failure path lands in the result content so the model can react to
// the tool's own failure on the next iteration.
func (o *Orchestrator) execute(ctx context.Context, role chat.Caller, call chat.ToolCall) *Result {
	if o.registry.Has(call.Name) {
		return o.registry.Execute(ctx, role, call.Name, call.Arguments)
	}
	if o.remote != nil && o.remote.Has(call.Name) {
		text, err := o.remote.CallTool(ctx, call.Name, call.Arguments)
		if err != nil {
			slog.Warn("remote tool failed", "tool", call.Name, "error", err)
			return errorResult(err.Error())
		}
		return &Result{Content: text}
	}
	return errorResult(fmt.Sprintf("unknown tool: %s", call.Name))
}

func systemPrompt(role chat.Caller) string {
	if role.Admin() {
		return adminPrompt
	}
	return customerPrompt
}

// window keeps the most recent entries of the prior conversation so the
// transcript sent upstream stays bounded.
func window(history []chat.Message) []chat.Message {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}

// Chart is a helper for handlers that attach visualization payloads.
func Chart(kind string, payload any) (json.RawMessage, error) {
	return json.Marshal(map[string]any{"type": kind, "data": payload})
}
