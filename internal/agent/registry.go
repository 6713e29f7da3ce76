package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"shopmate/internal/chat"
)

// Handler is one in-process tool bound to the registry.
type Handler interface {
	Name() string
	Description() string
	Schema() chat.Schema
	AdminOnly() bool
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Result is a handler's outcome. Content is a JSON payload fed back into the
// transcript; Chart optionally carries a visualization descriptor streamed to
// the client as its own chunk.
type Result struct {
	Content string
	Chart   json.RawMessage
}

// Registry maps tool names to in-process handlers. It is built once at
// startup and read-only afterwards.
type Registry struct {
	tools map[string]Handler
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) {
	if _, exists := r.tools[h.Name()]; !exists {
		r.order = append(r.order, h.Name())
	}
	r.tools[h.Name()] = h
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// List returns the descriptors visible to the role, in registration order.
// Admin-only tools are omitted for non-admin callers.
func (r *Registry) List(role chat.Caller) []chat.Tool {
	tools := make([]chat.Tool, 0, len(r.order))
	for _, name := range r.order {
		h := r.tools[name]
		if h.AdminOnly() && !role.Admin() {
			continue
		}
		tools = append(tools, chat.Tool{
			Name:        h.Name(),
			Description: h.Description(),
			Parameters:  h.Schema(),
		})
	}
	return tools
}

// Execute dispatches a call to the named handler. Failures of any kind,
// including unknown names and authorization violations, come back as a
// structured error payload in the result content so the orchestration loop
// never aborts on a single tool failure.
func (r *Registry) Execute(ctx context.Context, role chat.Caller, name string, args map[string]any) *Result {
	h, ok := r.tools[name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", name))
	}
	if h.AdminOnly() && !role.Admin() {
		return errorResult(fmt.Sprintf("Admin only: %s requires the admin role", name))
	}

	res, err := withTrace(h).Execute(ContextWithRole(ctx, role), args)
	if err != nil {
		slog.Warn("tool execution failed", "tool", name, "error", err)
		return errorResult(err.Error())
	}
	return res
}

func errorResult(msg string) *Result {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return &Result{Content: string(payload)}
}
