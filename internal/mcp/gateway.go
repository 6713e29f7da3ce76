// Package mcp manages externally spawned tool-provider processes speaking
// the Model Context Protocol over stdio, and presents them to the
// orchestrator through the same list/call contract as the local registry.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"shopmate/internal/chat"
)

const protocolVersion = "2024-11-05"

// ServerConfig describes one provider process.
type ServerConfig struct {
	Name      string
	Command   string
	Args      []string
	Env       map[string]string
	AdminOnly bool
}

// session is the slice of the MCP client the gateway uses. *client.Client
// satisfies it; tests substitute a fake.
type session interface {
	ListTools(ctx context.Context, req mcptypes.ListToolsRequest) (*mcptypes.ListToolsResult, error)
	CallTool(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error)
	Close() error
}

type server struct {
	cfg     ServerConfig
	session session
	tools   []chat.Tool
}

// Gateway owns the lifecycle of every configured provider process. The
// name-to-server index is guarded by one mutex; connect and disconnect from
// concurrent turns serialize on it.
type Gateway struct {
	mu      sync.Mutex
	servers []*server
	byTool  map[string]*server

	// connect spawns and handshakes one provider. Swapped out in tests.
	connect func(ctx context.Context, cfg ServerConfig) (session, []mcptypes.Tool, error)
}

func NewGateway() *Gateway {
	return &Gateway{
		byTool:  make(map[string]*server),
		connect: connectStdio,
	}
}

// ConnectAll spawns one process per config, performs the protocol handshake,
// and populates the tool index from each provider's declared tools. If any
// provider fails, the ones already connected are torn down before the error
// is returned so no process leaks from a partial initialization.
func (g *Gateway) ConnectAll(ctx context.Context, configs []ServerConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, cfg := range configs {
		sess, tools, err := g.connect(ctx, cfg)
		if err != nil {
			g.teardownLocked()
			return fmt.Errorf("connecting tool server %q: %w", cfg.Name, err)
		}

		srv := &server{cfg: cfg, session: sess}
		for _, t := range tools {
			if prior, taken := g.byTool[t.Name]; taken {
				// First connection wins; a later server cannot shadow an
				// earlier server's tool.
				slog.Warn("duplicate tool name ignored",
					"tool", t.Name, "server", cfg.Name, "owner", prior.cfg.Name)
				continue
			}
			srv.tools = append(srv.tools, toolFromMCP(t))
			g.byTool[t.Name] = srv
		}
		g.servers = append(g.servers, srv)

		slog.Info("connected to tool server",
			"name", cfg.Name, "command", cfg.Command, "tools", len(srv.tools), "admin_only", cfg.AdminOnly)
	}
	return nil
}

// ListTools aggregates every connected provider's tools, excluding
// admin-only providers for non-admin callers.
func (g *Gateway) ListTools(role chat.Caller) []chat.Tool {
	g.mu.Lock()
	defer g.mu.Unlock()

	var tools []chat.Tool
	for _, srv := range g.servers {
		if srv.cfg.AdminOnly && !role.Admin() {
			continue
		}
		tools = append(tools, srv.tools...)
	}
	return tools
}

// Has reports whether a connected or previously connected provider declared
// the tool.
func (g *Gateway) Has(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.byTool[name]
	return ok
}

// CallTool forwards the call to the owning provider and returns the first
// text content block of the response, or the JSON of the whole content list
// when no text block is present.
func (g *Gateway) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	g.mu.Lock()
	srv := g.byTool[name]
	g.mu.Unlock()

	if srv == nil {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if srv.session == nil {
		return "", fmt.Errorf("server not connected: %s", srv.cfg.Name)
	}

	req := mcptypes.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := srv.session.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling tool %s on %s: %w", name, srv.cfg.Name, err)
	}

	if resp.IsError {
		if text, ok := firstText(resp.Content); ok {
			return "", fmt.Errorf("tool %s failed: %s", name, text)
		}
		return "", fmt.Errorf("tool %s failed", name)
	}

	if text, ok := firstText(resp.Content); ok {
		return text, nil
	}
	raw, err := json.Marshal(resp.Content)
	if err != nil {
		return "", fmt.Errorf("encoding tool response: %w", err)
	}
	return string(raw), nil
}

// DisconnectAll closes every provider session and kills the processes.
// Best-effort: an individual failure is logged so one stuck provider cannot
// block shutdown of the rest. The tool index keeps its entries pointing at
// disconnected servers so a late call fails with "server not connected"
// instead of reporting an unknown tool.
func (g *Gateway) DisconnectAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardownLocked()
}

func (g *Gateway) teardownLocked() {
	for _, srv := range g.servers {
		if srv.session == nil {
			continue
		}
		if err := srv.session.Close(); err != nil {
			slog.Warn("disconnecting tool server failed", "name", srv.cfg.Name, "error", err)
		}
		srv.session = nil
	}
}

// connectStdio spawns the provider process, runs the MCP handshake, and
// lists its tools.
func connectStdio(ctx context.Context, cfg ServerConfig) (session, []mcptypes.Tool, error) {
	mcpClient, err := client.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return nil, nil, fmt.Errorf("spawning %s: %w", cfg.Command, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting client: %w", err)
	}

	initReq := mcptypes.InitializeRequest{}
	initReq.Params.ProtocolVersion = protocolVersion
	initReq.Params.ClientInfo = mcptypes.Implementation{
		Name:    "shopmate",
		Version: "1.0.0",
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return nil, nil, fmt.Errorf("initializing: %w", err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return nil, nil, fmt.Errorf("listing tools: %w", err)
	}
	return mcpClient, listResp.Tools, nil
}

func envSlice(env map[string]string) []string {
	if env == nil {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}

func firstText(content []mcptypes.Content) (string, bool) {
	for _, c := range content {
		if text, ok := c.(mcptypes.TextContent); ok {
			return text.Text, true
		}
	}
	return "", false
}

// toolFromMCP converts an MCP tool declaration to the neutral descriptor.
func toolFromMCP(t mcptypes.Tool) chat.Tool {
	schema := chat.Schema{
		Type:       t.InputSchema.Type,
		Properties: make(map[string]chat.Property, len(t.InputSchema.Properties)),
		Required:   t.InputSchema.Required,
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	for name, raw := range t.InputSchema.Properties {
		schema.Properties[name] = propertyFromMap(raw)
	}
	return chat.Tool{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  schema,
	}
}

func propertyFromMap(raw any) chat.Property {
	m, ok := raw.(map[string]any)
	if !ok {
		return chat.Property{Type: "string"}
	}
	prop := chat.Property{}
	if typ, ok := m["type"].(string); ok {
		prop.Type = typ
	}
	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, v := range enum {
			if s, ok := v.(string); ok {
				prop.Enum = append(prop.Enum, s)
			}
		}
	}
	return prop
}
