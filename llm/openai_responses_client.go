package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"

	"AgentRelay/misc"
)

// OpenAIResponsesClient implements Client over the official
// openai/openai-go SDK's Responses API. It owns the conversation
// history for one session and a cumulative usage tally.
type OpenAIResponsesClient struct {
	cli     openai.Client
	history conversationHistory[responses.ResponseInputItemUnionParam]
	tally   UsageTally
	sink    TrajectorySink
	backoff BackoffPolicy

	// call issues one network attempt. Tests substitute a fake.
	call func(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error)
}

// NewOpenAIResponsesClient builds a client from config. The API key is
// resolved config-first, then OPENAI_API_KEY; construction fails with
// ErrMissingAPIKey before any network access when neither is set.
// OPENAI_BASE_URL overrides any configured base URL, for OpenAI
// compatible third-party endpoints.
func NewOpenAIResponsesClient(cfg misc.Config) (*OpenAIResponsesClient, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := &OpenAIResponsesClient{
		cli:     openai.NewClient(opts...),
		backoff: DefaultBackoff,
	}
	c.call = func(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
		return c.cli.Responses.New(ctx, params)
	}
	return c, nil
}

// SetTrajectorySink configures the exchange recorder. Forwarding is best
// effort; a nil sink disables it.
func (c *OpenAIResponsesClient) SetTrajectorySink(sink TrajectorySink) {
	c.sink = sink
}

// SetBackoffPolicy replaces the retry backoff policy.
func (c *OpenAIResponsesClient) SetBackoffPolicy(p BackoffPolicy) {
	c.backoff = p
}

// SetChatHistory implements Client. The messages are sanitized and
// translated; stored history is replaced wholesale.
func (c *OpenAIResponsesClient) SetChatHistory(messages []Message) error {
	items, err := toInputItems(SanitizeMessages(messages))
	if err != nil {
		return err
	}
	c.history.set(items)
	return nil
}

// SupportsToolCalling implements Client via the capability table.
func (c *OpenAIResponsesClient) SupportsToolCalling(params ModelParameters) bool {
	return FeaturesFor(params.Model).SupportsToolCalling
}

// TotalUsage returns the cumulative token usage across all successful
// calls on this client.
func (c *OpenAIResponsesClient) TotalUsage() Usage {
	return c.tally.Snapshot()
}

// HistoryTokens estimates the token footprint of the stored history.
func (c *OpenAIResponsesClient) HistoryTokens() int {
	return c.history.tokens()
}

// Chat implements Client. Blocking; the only suspension points are the
// network attempts and the backoff sleeps between them.
func (c *OpenAIResponsesClient) Chat(ctx context.Context, messages []Message, params ModelParameters, tools []ToolSchema, reuseHistory bool) (*Response, error) {
	newItems, err := toInputItems(messages)
	if err != nil {
		return nil, err
	}
	input := c.history.mergeForCall(newItems, reuseHistory)

	req := responses.ResponseNewParams{
		Model: openai.ChatModel(params.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		TopP:            openai.Float(params.TopP),
		MaxOutputTokens: openai.Int(params.MaxTokens),
		Store:           openai.Bool(false),
	}
	// The o3 and o4-mini families reject an explicit temperature.
	if FeaturesFor(params.Model).SupportsTemperature {
		req.Temperature = openai.Float(params.Temperature)
	}
	// Omit the tools field entirely when no tools are offered; an empty
	// but present array is not the same thing to the provider.
	if len(tools) > 0 {
		fns, err := toFunctionTools(tools)
		if err != nil {
			return nil, err
		}
		req.Tools = fns
	}

	// History tokenization is too expensive to pay for a disabled log line.
	if misc.DebugEnabled() {
		misc.Debug("responses request: model=%s items=%d reuse=%v est_tokens=%d",
			params.Model, len(input), reuseHistory, c.history.tokens())
	}

	resp, err := invokeWithRetry(ctx, params.MaxRetries, c.backoff, func(ctx context.Context) (*responses.Response, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return c.reconcile(messages, input, resp, params, tools)
}

// reconcile decomposes a provider response into the uniform Response,
// overwrites history with sent ++ output, and forwards the exchange to
// the trajectory sink.
func (c *OpenAIResponsesClient) reconcile(messages []Message, sent responses.ResponseInputParam, resp *responses.Response, params ModelParameters, tools []ToolSchema) (*Response, error) {
	var content strings.Builder
	var toolCalls []ToolCall
	for _, block := range resp.Output {
		switch block.Type {
		case "message":
			for _, part := range block.Content {
				if part.Type == "output_text" {
					content.WriteString(part.Text)
				}
			}
		case "function_call":
			args, err := decodeArguments(block.Arguments)
			if err != nil {
				return nil, fmt.Errorf("%w: decode arguments for %s: %v", ErrTranslation, block.Name, err)
			}
			toolCalls = append(toolCalls, ToolCall{
				CallID:    block.CallID,
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	var usage *Usage
	if resp.Usage.TotalTokens > 0 {
		usage = &Usage{
			InputTokens:          resp.Usage.InputTokens,
			OutputTokens:         resp.Usage.OutputTokens,
			CacheReadInputTokens: resp.Usage.InputTokensDetails.CachedTokens,
			ReasoningTokens:      resp.Usage.OutputTokensDetails.ReasoningTokens,
		}
		c.tally.Add(*usage)
	}

	out := &Response{
		Content:      content.String(),
		Usage:        usage,
		Model:        string(resp.Model),
		FinishReason: string(resp.Status),
		ToolCalls:    toolCalls,
	}

	c.history.record(sent, outputToInputItems(resp))

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
