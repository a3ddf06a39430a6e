package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"AgentRelay/misc"
)

// OpenAIChatClient implements Client over the Chat Completions API
// (/v1/chat/completions), for endpoints that do not expose the
// Responses API. Same contract and history semantics as the responses
// client, different wire shapes.
type OpenAIChatClient struct {
	cli     openai.Client
	history conversationHistory[openai.ChatCompletionMessageParamUnion]
	tally   UsageTally
	sink    TrajectorySink
	backoff BackoffPolicy

	call func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// NewOpenAIChatClient builds a Chat Completions client from config, with
// the same key/base-URL resolution as the responses client.
func NewOpenAIChatClient(cfg misc.Config) (*OpenAIChatClient, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := &OpenAIChatClient{
		cli:     openai.NewClient(opts...),
		backoff: DefaultBackoff,
	}
	c.call = func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
		return c.cli.Chat.Completions.New(ctx, params)
	}
	return c, nil
}

// SetTrajectorySink configures the exchange recorder.
func (c *OpenAIChatClient) SetTrajectorySink(sink TrajectorySink) {
	c.sink = sink
}

// SetBackoffPolicy replaces the retry backoff policy.
func (c *OpenAIChatClient) SetBackoffPolicy(p BackoffPolicy) {
	c.backoff = p
}

// SetChatHistory implements Client.
func (c *OpenAIChatClient) SetChatHistory(messages []Message) error {
	items, err := toChatParams(SanitizeMessages(messages))
	if err != nil {
		return err
	}
	c.history.set(items)
	return nil
}

// SupportsToolCalling implements Client via the capability table.
func (c *OpenAIChatClient) SupportsToolCalling(params ModelParameters) bool {
	return FeaturesFor(params.Model).SupportsToolCalling
}

// TotalUsage returns the cumulative token usage on this client.
func (c *OpenAIChatClient) TotalUsage() Usage {
	return c.tally.Snapshot()
}

// Chat implements Client.
func (c *OpenAIChatClient) Chat(ctx context.Context, messages []Message, params ModelParameters, tools []ToolSchema, reuseHistory bool) (*Response, error) {
	newItems, err := toChatParams(messages)
	if err != nil {
		return nil, err
	}
	input := c.history.mergeForCall(newItems, reuseHistory)

	req := openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(params.Model),
		Messages:            input,
		TopP:                openai.Float(params.TopP),
		MaxCompletionTokens: openai.Int(params.MaxTokens),
	}
	if FeaturesFor(params.Model).SupportsTemperature {
		req.Temperature = openai.Float(params.Temperature)
	}
	if len(tools) > 0 {
		fns, err := toChatTools(tools)
		if err != nil {
			return nil, err
		}
		req.Tools = fns
	}

	misc.Debug("chat request: model=%s messages=%d reuse=%v", params.Model, len(input), reuseHistory)

	resp, err := invokeWithRetry(ctx, params.MaxRetries, c.backoff, func(ctx context.Context) (*openai.ChatCompletion, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return c.reconcile(messages, input, resp, params, tools)
}

func (c *OpenAIChatClient) reconcile(messages []Message, sent []openai.ChatCompletionMessageParamUnion, resp *openai.ChatCompletion, params ModelParameters, tools []ToolSchema) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response (finish_reason=none)")
	}
	choice := resp.Choices[0]

	var toolCalls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "function" {
			continue
		}
		args, err := decodeArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%w: decode arguments for %s: %v", ErrTranslation, tc.Function.Name, err)
		}
		toolCalls = append(toolCalls, ToolCall{
			CallID:    tc.ID,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	var usage *Usage
	if resp.Usage.TotalTokens > 0 {
		usage = &Usage{
			InputTokens:          resp.Usage.PromptTokens,
			OutputTokens:         resp.Usage.CompletionTokens,
			CacheReadInputTokens: resp.Usage.PromptTokensDetails.CachedTokens,
			ReasoningTokens:      resp.Usage.CompletionTokensDetails.ReasoningTokens,
		}
		c.tally.Add(*usage)
	}

	out := &Response{
		Content:      choice.Message.Content,
		Usage:        usage,
		Model:        string(resp.Model),
		FinishReason: string(choice.FinishReason),
		ToolCalls:    toolCalls,
	}

	c.history.record(sent, completionToChatParams(resp))

	if c.sink != nil {
		entry := TrajectoryEntry{
			Provider: "openai",
			Model:    params.Model,
			Messages: messages,
			Response: *out,
			Tools:    tools,
		}
		if err := c.sink.Record(entry); err != nil {
			misc.Warn("llm", "trajectory record failed: %s", err)
		}
	}
	return out, nil
}

// --- conversion helpers: Message model → Chat Completions params ---

func toChatParams(msgs []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch {
		case m.ToolResult != nil:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: m.ToolResult.CallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(m.ToolResult.Output()),
					},
				},
			})

		case m.ToolCall != nil:
			args, err := encodeArguments(m.ToolCall.Arguments)
			if err != nil {
				return nil, fmt.Errorf("%w: encode arguments for %s: %v", ErrTranslation, m.ToolCall.Name, err)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					ToolCalls: []openai.ChatCompletionMessageToolCallUnionParam{{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: m.ToolCall.CallID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      m.ToolCall.Name,
								Arguments: args,
							},
						},
					}},
				},
			})

		default:
			if m.Content == "" {
				return nil, fmt.Errorf("%w: message content is required", ErrInvalidMessage)
			}
			switch m.Role {
			case RoleSystem:
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfSystem: &openai.ChatCompletionSystemMessageParam{
						Content: openai.ChatCompletionSystemMessageParamContentUnion{
							OfString: openai.String(m.Content),
						},
					},
				})
			case RoleUser:
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Content: openai.ChatCompletionUserMessageParamContentUnion{
							OfString: openai.String(m.Content),
						},
					},
				})
			case RoleAssistant:
				out = append(out, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						Content: openai.ChatCompletionAssistantMessageParamContentUnion{
							OfString: openai.String(m.Content),
						},
					},
				})
			default:
				return nil, fmt.Errorf("%w: invalid message role: %q", ErrInvalidMessage, m.Role)
			}
		}
	}
	return out, nil
}

func toChatTools(tools []ToolSchema) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  shared.FunctionParameters(t.Parameters),
					Strict:      openai.Bool(true),
				},
			},
		})
	}
	return out, nil
}

// completionToChatParams converts the assistant reply back into request
// params for history accumulation.
func completionToChatParams(resp *openai.ChatCompletion) []openai.ChatCompletionMessageParamUnion {
	if len(resp.Choices) == 0 {
		return nil
	}
	msg := resp.Choices[0].Message
	asst := &openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "function" {
			continue
		}
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			},
		})
	}
	if msg.Content == "" && len(asst.ToolCalls) == 0 {
		return nil
	}
	return []openai.ChatCompletionMessageParamUnion{{OfAssistant: asst}}
}
