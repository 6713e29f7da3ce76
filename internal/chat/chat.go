// Package chat defines the backend-neutral conversation vocabulary shared by
// the orchestrator, the LLM provider adapters, and the tool layer. Provider
// adapters translate these types to and from their native wire formats.
package chat

// Message roles. The system message is synthesized per request and never
// persisted; tool messages answer a specific assistant tool call.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Caller is the identity tier of the person driving the conversation.
type Caller string

const (
	CallerCustomer Caller = "customer"
	CallerAdmin    Caller = "admin"
)

// Admin reports whether the caller may use admin-gated tools.
func (c Caller) Admin() bool { return c == CallerAdmin }

// Message is one entry in a conversation transcript.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set when Role == RoleTool
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // set when Role == RoleAssistant
}

// ToolCall is a request by the model to invoke a named tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of dispatching one ToolCall, as streamed to the
// client. Content is always a JSON-serialized payload; chart payloads travel
// as their own chunk, not here.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
}

// ChunkType tags the variants of the streamed chunk union.
type ChunkType string

const (
	ChunkText       ChunkType = "text"
	ChunkToolCall   ChunkType = "tool_call"
	ChunkToolResult ChunkType = "tool_result"
	ChunkChart      ChunkType = "chart"
	ChunkDone       ChunkType = "done"
	ChunkError      ChunkType = "error"
)

// Chunk is the only thing crossing the orchestrator boundary while a turn is
// in flight. A turn's chunk sequence is append-only and terminates with
// exactly one ChunkDone or ChunkError.
//
// Data payload per type: ChunkText carries a string, ChunkToolCall a
// ToolCall, ChunkToolResult a ToolResult, ChunkChart a json.RawMessage,
// ChunkError a string. ChunkDone carries nil.
type Chunk struct {
	Type ChunkType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// Tool describes a capability the model may request.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Schema is the object-typed parameter schema of a tool.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one named tool parameter.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// ObjectSchema builds an object schema from properties and required names.
func ObjectSchema(props map[string]Property, required ...string) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

// AsMap renders the schema as a plain JSON-schema map, the form every
// backend SDK and the MCP protocol consume.
func (s Schema) AsMap() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}
	m := map[string]any{
		"type":       s.Type,
		"properties": props,
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}
