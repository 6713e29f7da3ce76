package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"shopmate/internal/chat"
)

const anthropicMaxTokens = 4096

// Anthropic implements Provider over the messages API. The API takes the
// system instruction as a separate directive rather than a system-role turn,
// and rate-limits aggressively, so every call goes through the retry policy.
// This adapter surfaces streamed output as whole content blocks, not token
// deltas.
type Anthropic struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropic(baseURL, apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	var opts []option.RequestOption
	opts = append(opts, option.WithAPIKey(apiKey))
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)

	return &Anthropic{
		client: &client,
		model:  anthropic.Model(model),
	}, nil
}

func (p *Anthropic) Chat(ctx context.Context, msgs []chat.Message, tools []chat.Tool) (*chat.Message, error) {
	return withRetry(ctx, func() (*chat.Message, error) {
		return p.send(ctx, msgs, tools, nil)
	})
}

func (p *Anthropic) ChatStream(ctx context.Context, msgs []chat.Message, tools []chat.Tool, onText func(string)) (*chat.Message, error) {
	return withRetry(ctx, func() (*chat.Message, error) {
		return p.send(ctx, msgs, tools, onText)
	})
}

func (p *Anthropic) send(ctx context.Context, msgs []chat.Message, tools []chat.Tool, onText func(string)) (*chat.Message, error) {
	anthropicMsgs, system := toAnthropicMessages(msgs)

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  anthropicMsgs,
		MaxTokens: anthropicMaxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = toAnthropicTools(tools)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message: %w", err)
	}

	out := &chat.Message{Role: chat.RoleAssistant}
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Content += v.Text
			if onText != nil {
				onText(v.Text)
			}
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(v.Input, &args); err != nil {
				args = make(map[string]any)
			}
			out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: args,
			})
		}
	}
	return out, nil
}

// toAnthropicMessages converts the neutral transcript. System-role turns are
// lifted out into the separate system directive the API expects; tool-role
// turns become user messages carrying a tool_result block.
func toAnthropicMessages(msgs []chat.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var system []anthropic.TextBlockParam
	out := make([]anthropic.MessageParam, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})

		case chat.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case chat.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: tc.Arguments,
					},
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case chat.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: m.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: m.Content}},
					},
				},
			}))
		}
	}
	return out, system
}

func toAnthropicTools(tools []chat.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := t.Parameters.AsMap()
		input := anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		}
		if required, ok := schema["required"].([]string); ok {
			input.Required = required
		}
		out[i] = anthropic.ToolUnionParamOfTool(input, t.Name)
		if t.Description != "" {
			out[i].OfTool.Description = anthropic.String(t.Description)
		}
	}
	return out
}
