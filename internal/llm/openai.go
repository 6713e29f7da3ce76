package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shopmate/internal/chat"
)

// OpenAI implements Provider over the chat completions API. Streaming uses
// native deltas: text reaches onText per token, and partially streamed
// tool-call argument fragments are accumulated per call index until the
// stream ends.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}))
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, model: model}
}

func (p *OpenAI) Chat(ctx context.Context, msgs []chat.Message, tools []chat.Tool) (*chat.Message, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(msgs, tools))
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: no choices returned")
	}
	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

func (p *OpenAI) ChatStream(ctx context.Context, msgs []chat.Message, tools []chat.Tool, onText func(string)) (*chat.Message, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(msgs, tools))

	// The accumulator reassembles the final message from deltas, including
	// tool-call argument fragments keyed by call index.
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if onText != nil {
				onText(chunk.Choices[0].Delta.Content)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("openai stream: no choices accumulated")
	}
	return fromOpenAIMessage(acc.Choices[0].Message), nil
}

func (p *OpenAI) params(msgs []chat.Message, tools []chat.Tool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: toOpenAIMessages(msgs),
	}
	if len(tools) > 0 {
		params.Tools = toOpenAITools(tools)
	}
	return params
}

func toOpenAIMessages(msgs []chat.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case chat.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(args),
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case chat.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func toOpenAITools(tools []chat.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters.AsMap()),
		})
	}
	return out
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) *chat.Message {
	out := &chat.Message{Role: chat.RoleAssistant, Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			args = make(map[string]any)
		}
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out
}
