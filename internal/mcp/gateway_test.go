package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"shopmate/internal/chat"
)

type fakeSession struct {
	callResult *mcptypes.CallToolResult
	callErr    error
	closed     bool
	lastCall   mcptypes.CallToolRequest
}

func (f *fakeSession) ListTools(ctx context.Context, req mcptypes.ListToolsRequest) (*mcptypes.ListToolsResult, error) {
	return &mcptypes.ListToolsResult{}, nil
}

func (f *fakeSession) CallTool(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	f.lastCall = req
	return f.callResult, f.callErr
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func textResult(text string) *mcptypes.CallToolResult {
	return &mcptypes.CallToolResult{
		Content: []mcptypes.Content{mcptypes.TextContent{Type: "text", Text: text}},
	}
}

func stubTool(name string) mcptypes.Tool {
	return mcptypes.Tool{
		Name:        name,
		Description: "stub " + name,
		InputSchema: mcptypes.ToolInputSchema{Type: "object"},
	}
}

// fakeGateway wires a gateway whose connect function hands out the given
// sessions instead of spawning processes.
func fakeGateway(t *testing.T, sessions map[string]*fakeSession, tools map[string][]mcptypes.Tool) *Gateway {
	t.Helper()
	g := NewGateway()
	g.connect = func(ctx context.Context, cfg ServerConfig) (session, []mcptypes.Tool, error) {
		sess, ok := sessions[cfg.Name]
		if !ok {
			return nil, nil, errors.New("spawn failed")
		}
		return sess, tools[cfg.Name], nil
	}
	return g
}

func TestConnectAllAndCallTool(t *testing.T) {
	sess := &fakeSession{callResult: textResult(`{"status":"shipped"}`)}
	g := fakeGateway(t,
		map[string]*fakeSession{"shipping": sess},
		map[string][]mcptypes.Tool{"shipping": {stubTool("track_shipment")}},
	)

	err := g.ConnectAll(context.Background(), []ServerConfig{{Name: "shipping", Command: "shipping-tools"}})
	if err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	if !g.Has("track_shipment") {
		t.Fatal("tool not indexed after connect")
	}

	out, err := g.CallTool(context.Background(), "track_shipment", map[string]any{"order_id": 7})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != `{"status":"shipped"}` {
		t.Errorf("got %q", out)
	}
	if sess.lastCall.Params.Name != "track_shipment" {
		t.Errorf("forwarded name = %q", sess.lastCall.Params.Name)
	}
}

func TestConnectAllTearsDownOnFailure(t *testing.T) {
	good := &fakeSession{}
	g := fakeGateway(t,
		map[string]*fakeSession{"good": good},
		map[string][]mcptypes.Tool{"good": {stubTool("a")}},
	)

	err := g.ConnectAll(context.Background(), []ServerConfig{
		{Name: "good", Command: "good"},
		{Name: "bad", Command: "bad"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !good.closed {
		t.Error("already-connected server not torn down after a later failure")
	}
}

func TestDuplicateToolNameFirstWins(t *testing.T) {
	first := &fakeSession{callResult: textResult("from first")}
	second := &fakeSession{callResult: textResult("from second")}
	g := fakeGateway(t,
		map[string]*fakeSession{"one": first, "two": second},
		map[string][]mcptypes.Tool{
			"one": {stubTool("lookup")},
			"two": {stubTool("lookup")},
		},
	)

	if err := g.ConnectAll(context.Background(), []ServerConfig{
		{Name: "one", Command: "one"},
		{Name: "two", Command: "two"},
	}); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	out, err := g.CallTool(context.Background(), "lookup", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if out != "from first" {
		t.Errorf("got %q, want the first server's result", out)
	}
	if len(g.ListTools(chat.CallerCustomer)) != 1 {
		t.Errorf("duplicate tool listed twice")
	}
}

func TestListToolsFiltersAdminOnlyServers(t *testing.T) {
	g := fakeGateway(t,
		map[string]*fakeSession{"public": {}, "internal": {}},
		map[string][]mcptypes.Tool{
			"public":   {stubTool("track_shipment")},
			"internal": {stubTool("refund_order")},
		},
	)

	if err := g.ConnectAll(context.Background(), []ServerConfig{
		{Name: "public", Command: "public"},
		{Name: "internal", Command: "internal", AdminOnly: true},
	}); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	customer := g.ListTools(chat.CallerCustomer)
	if len(customer) != 1 || customer[0].Name != "track_shipment" {
		t.Errorf("customer tools = %+v", customer)
	}
	if len(g.ListTools(chat.CallerAdmin)) != 2 {
		t.Errorf("admin must see both servers' tools")
	}
}

func TestCallToolUnknown(t *testing.T) {
	g := NewGateway()
	_, err := g.CallTool(context.Background(), "nope", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("got %v, want unknown tool", err)
	}
}

func TestCallToolErrorResult(t *testing.T) {
	sess := &fakeSession{callResult: &mcptypes.CallToolResult{
		IsError: true,
		Content: []mcptypes.Content{mcptypes.TextContent{Type: "text", Text: "order not found"}},
	}}
	g := fakeGateway(t,
		map[string]*fakeSession{"s": sess},
		map[string][]mcptypes.Tool{"s": {stubTool("lookup")}},
	)
	if err := g.ConnectAll(context.Background(), []ServerConfig{{Name: "s", Command: "s"}}); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	_, err := g.CallTool(context.Background(), "lookup", nil)
	if err == nil || !strings.Contains(err.Error(), "order not found") {
		t.Errorf("got %v, want the provider's error text", err)
	}
}

func TestDisconnectAllKeepsToolIndex(t *testing.T) {
	sess := &fakeSession{callResult: textResult("ok")}
	g := fakeGateway(t,
		map[string]*fakeSession{"s": sess},
		map[string][]mcptypes.Tool{"s": {stubTool("lookup")}},
	)
	if err := g.ConnectAll(context.Background(), []ServerConfig{{Name: "s", Command: "s"}}); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}

	g.DisconnectAll()

	if !sess.closed {
		t.Error("session not closed")
	}
	if !g.Has("lookup") {
		t.Error("tool index dropped on disconnect")
	}
	_, err := g.CallTool(context.Background(), "lookup", nil)
	if err == nil || !strings.Contains(err.Error(), "server not connected") {
		t.Errorf("got %v, want server not connected", err)
	}
}

func TestToolFromMCPDefaultsObjectType(t *testing.T) {
	tool := toolFromMCP(mcptypes.Tool{
		Name: "lookup",
		InputSchema: mcptypes.ToolInputSchema{
			Properties: map[string]any{
				"order_id": map[string]any{"type": "number", "description": "order id"},
				"status":   map[string]any{"type": "string", "enum": []any{"open", "closed"}},
			},
			Required: []string{"order_id"},
		},
	})

	if tool.Parameters.Type != "object" {
		t.Errorf("schema type = %q, want object", tool.Parameters.Type)
	}
	if tool.Parameters.Properties["order_id"].Type != "number" {
		t.Errorf("order_id property = %+v", tool.Parameters.Properties["order_id"])
	}
	if got := tool.Parameters.Properties["status"].Enum; len(got) != 2 || got[0] != "open" {
		t.Errorf("status enum = %v", got)
	}
}
