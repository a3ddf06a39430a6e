package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/require"

	"AgentRelay/misc"
)

func testParams() ModelParameters {
	return ModelParameters{
		Model:       "gpt-4o-2024-08-06",
		Temperature: 0.5,
		TopP:        1,
		MaxTokens:   4096,
		MaxRetries:  3,
	}
}

// newTestClient builds a responses client with a canned provider and a
// zero-delay backoff. The returned pointer captures the last request.
func newTestClient(t *testing.T, respond func(responses.ResponseNewParams) (*responses.Response, error)) (*OpenAIResponsesClient, *responses.ResponseNewParams) {
	t.Helper()
	cfg := misc.DefaultConfig()
	cfg.OpenAI.APIKey = "test-key"
	c, err := NewOpenAIResponsesClient(cfg)
	require.NoError(t, err)
	c.SetBackoffPolicy(func(int) time.Duration { return 0 })

	var lastReq responses.ResponseNewParams
	c.call = func(_ context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
		lastReq = params
		return respond(params)
	}
	return c, &lastReq
}

func textResponse(text string) *responses.Response {
	return &responses.Response{
		Model:  "gpt-4o-2024-08-06",
		Status: "completed",
		Output: []responses.ResponseOutputItemUnion{{
			Type: "message",
			Content: []responses.ResponseOutputMessageContentUnion{
				{Type: "output_text", Text: text},
			},
		}},
	}
}

func TestChatPlainText(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		resp := textResponse("hello there")
		resp.Usage = responses.ResponseUsage{
			InputTokens:  12,
			OutputTokens: 4,
			TotalTokens:  16,
			InputTokensDetails: responses.ResponseUsageInputTokensDetails{
				CachedTokens: 2,
			},
			OutputTokensDetails: responses.ResponseUsageOutputTokensDetails{
				ReasoningTokens: 1,
			},
		}
		return resp, nil
	})

	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("hi")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Equal(t, "hello there", resp.Content)
	require.Nil(t, resp.ToolCalls)
	require.Equal(t, "completed", resp.FinishReason)
	require.Equal(t, "gpt-4o-2024-08-06", resp.Model)
	require.NotNil(t, resp.Usage)
	require.Equal(t, int64(12), resp.Usage.InputTokens)
	require.Equal(t, int64(4), resp.Usage.OutputTokens)
	require.Equal(t, int64(2), resp.Usage.CacheReadInputTokens)
	require.Equal(t, int64(1), resp.Usage.ReasoningTokens)
}

func TestChatConcatenatesTextBlocksInOrder(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return &responses.Response{
			Status: "completed",
			Output: []responses.ResponseOutputItemUnion{
				{Type: "message", Content: []responses.ResponseOutputMessageContentUnion{
					{Type: "output_text", Text: "first"},
					{Type: "refusal", Text: "ignored"},
				}},
				{Type: "message", Content: []responses.ResponseOutputMessageContentUnion{
					{Type: "output_text", Text: "second"},
				}},
			},
		}, nil
	})

	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("go")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Equal(t, "firstsecond", resp.Content)
}

func TestChatToolCalls(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return &responses.Response{
			Status: "completed",
			Output: []responses.ResponseOutputItemUnion{{
				Type:      "function_call",
				ID:        "fc_abc",
				CallID:    "call_1",
				Name:      "read_file",
				Arguments: `{"path":"/etc/hosts"}`,
			}},
		}, nil
	})

	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("read hosts")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	tc := resp.ToolCalls[0]
	require.Equal(t, "call_1", tc.CallID)
	require.Equal(t, "fc_abc", tc.ID)
	require.Equal(t, "read_file", tc.Name)
	require.Equal(t, map[string]any{"path": "/etc/hosts"}, tc.Arguments)
	// No usage section in the provider response → nil, not zero-filled.
	require.Nil(t, resp.Usage)
}

func TestChatEmptyArgumentsString(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return &responses.Response{
			Status: "completed",
			Output: []responses.ResponseOutputItemUnion{{
				Type: "function_call", CallID: "c1", Name: "noop", Arguments: "",
			}},
		}, nil
	})
	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	require.NotNil(t, resp.ToolCalls[0].Arguments)
	require.Empty(t, resp.ToolCalls[0].Arguments)
}

func TestChatMalformedArguments(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return &responses.Response{
			Status: "completed",
			Output: []responses.ResponseOutputItemUnion{{
				Type: "function_call", CallID: "c1", Name: "bad", Arguments: `{"x":`,
			}},
		}, nil
	})
	_, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	require.ErrorIs(t, err, ErrTranslation)
}

func TestChatCallIDRoundTrip(t *testing.T) {
	// A tool call that came back from the provider, fed through a tool
	// result, must reach the wire with the same call id.
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("done"), nil
	})

	result := NewToolResultMessage(ToolResult{CallID: "call_77", Result: "42"})
	_, err := c.Chat(context.Background(), []Message{result}, testParams(), nil, true)
	require.NoError(t, err)

	items := lastReq.Input.OfInputItemList
	require.Len(t, items, 1)
	require.NotNil(t, items[0].OfFunctionCallOutput)
	require.Equal(t, "call_77", items[0].OfFunctionCallOutput.CallID)
}

func TestChatTemperatureOmittedForReasoningModels(t *testing.T) {
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("ok"), nil
	})

	params := testParams()
	params.Model = "o3-2025-04-16"
	_, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, params, nil, true)
	require.NoError(t, err)
	require.False(t, lastReq.Temperature.Valid(), "temperature must be omitted for o3")
	require.True(t, lastReq.TopP.Valid())

	params.Model = "gpt-4o"
	_, err = c.Chat(context.Background(), []Message{NewUserMessage("x")}, params, nil, true)
	require.NoError(t, err)
	require.True(t, lastReq.Temperature.Valid())
	require.InDelta(t, 0.5, lastReq.Temperature.Value, 1e-9)
}

func TestChatToolsOmittedWhenNoneOffered(t *testing.T) {
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("ok"), nil
	})
	_, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Empty(t, lastReq.Tools)

	schema := ToolSchema{
		Name:        "echo",
		Description: "Echo the input",
		Parameters:  map[string]any{"type": "object", "properties": map[string]any{"s": map[string]any{"type": "string"}}},
	}
	_, err = c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), []ToolSchema{schema}, true)
	require.NoError(t, err)
	require.Len(t, lastReq.Tools, 1)
}

func TestChatHistoryGrowthIgnoresReuseFlag(t *testing.T) {
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("reply"), nil
	})

	// First call with reuseHistory=false: request carries only the new
	// message, yet history records sent ++ output.
	_, err := c.Chat(context.Background(), []Message{NewUserMessage("one")}, testParams(), nil, false)
	require.NoError(t, err)
	require.Len(t, lastReq.Input.OfInputItemList, 1)
	require.Equal(t, 2, c.history.len()) // user turn + assistant reply

	// Second call with reuse: prior history is prefixed.
	_, err = c.Chat(context.Background(), []Message{NewUserMessage("two")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Len(t, lastReq.Input.OfInputItemList, 3)
	require.Equal(t, 4, c.history.len())

	// Third call opting out again: only the new message goes out, but
	// the recorded history is replaced by that send plus its output.
	_, err = c.Chat(context.Background(), []Message{NewUserMessage("three")}, testParams(), nil, false)
	require.NoError(t, err)
	require.Len(t, lastReq.Input.OfInputItemList, 1)
	require.Equal(t, 2, c.history.len())
}

func TestChatHistoryKeepsAllOutputBlocks(t *testing.T) {
	// Reasoning-family responses interleave reasoning items with the
	// function calls that depend on them. With store=false the provider
	// rejects a resubmitted function_call whose reasoning item is gone,
	// so recorded history must carry every output block, not just the
	// message and function_call ones.
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return &responses.Response{
			Status: "completed",
			Output: []responses.ResponseOutputItemUnion{
				{Type: "reasoning", ID: "rs_1"},
				{Type: "function_call", ID: "fc_1", CallID: "call_1", Name: "read_file", Arguments: `{"path":"/tmp/x"}`},
				{Type: "message", Content: []responses.ResponseOutputMessageContentUnion{
					{Type: "output_text", Text: "reading"},
				}},
			},
		}, nil
	})

	params := testParams()
	params.Model = "o4-mini"
	_, err := c.Chat(context.Background(), []Message{NewUserMessage("read it")}, params, nil, true)
	require.NoError(t, err)

	// 1 sent item + all 3 output blocks, reasoning included.
	require.Equal(t, 4, c.history.len())

	// The whole lot goes back out on the next reused call.
	_, err = c.Chat(context.Background(), []Message{
		NewToolResultMessage(ToolResult{CallID: "call_1", Result: "contents"}),
	}, params, nil, true)
	require.NoError(t, err)
	require.Len(t, lastReq.Input.OfInputItemList, 5)
}

func TestChatRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("429 too many requests")
		}
		return textResponse("finally"), nil
	})

	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Equal(t, "finally", resp.Content)
	require.Equal(t, 3, attempts)
}

func TestChatExhaustedRetries(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return nil, errors.New("503 service unavailable")
	})

	_, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	var exhausted *ExhaustedRetriesError
	require.True(t, errors.As(err, &exhausted))
	require.Contains(t, exhausted.Log, "Error 1: 503 service unavailable")
	require.Contains(t, exhausted.Log, "Error 3: 503 service unavailable")

	// A failed call must not touch history.
	require.Zero(t, c.history.len())
}

func TestChatInvalidMessageNotRetried(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		attempts++
		return textResponse("unreachable"), nil
	})
	_, err := c.Chat(context.Background(), []Message{{Role: RoleUser}}, testParams(), nil, true)
	require.ErrorIs(t, err, ErrInvalidMessage)
	require.Zero(t, attempts)
}

// memorySink collects entries for assertions.
type memorySink struct {
	entries []TrajectoryEntry
	fail    error
}

func (s *memorySink) Record(entry TrajectoryEntry) error {
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, entry)
	return nil
}

func TestChatForwardsToTrajectorySink(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("recorded"), nil
	})
	sink := &memorySink{}
	c.SetTrajectorySink(sink)

	msgs := []Message{NewUserMessage("hello")}
	tools := []ToolSchema{{Name: "echo", Description: "d", Parameters: map[string]any{"type": "object"}}}
	_, err := c.Chat(context.Background(), msgs, testParams(), tools, true)
	require.NoError(t, err)

	require.Len(t, sink.entries, 1)
	entry := sink.entries[0]
	require.Equal(t, "openai", entry.Provider)
	require.Equal(t, "gpt-4o-2024-08-06", entry.Model)
	require.Equal(t, msgs, entry.Messages)
	require.Equal(t, "recorded", entry.Response.Content)
	require.Equal(t, tools, entry.Tools)
}

func TestChatSinkFailureDoesNotMaskResponse(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("primary"), nil
	})
	c.SetTrajectorySink(&memorySink{fail: errors.New("disk full")})

	resp, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Equal(t, "primary", resp.Content)
}

func TestChatUsageTally(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		resp := textResponse("ok")
		resp.Usage = responses.ResponseUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}
		return resp, nil
	})

	for i := 0; i < 3; i++ {
		_, err := c.Chat(context.Background(), []Message{NewUserMessage("x")}, testParams(), nil, false)
		require.NoError(t, err)
	}
	total := c.TotalUsage()
	require.Equal(t, int64(30), total.InputTokens)
	require.Equal(t, int64(15), total.OutputTokens)
}

func TestSetChatHistorySeedsNextCall(t *testing.T) {
	c, lastReq := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("ok"), nil
	})

	require.NoError(t, c.SetChatHistory([]Message{
		NewSystemMessage("be brief"),
		NewUserMessage("earlier question"),
		NewAssistantMessage("earlier answer"),
	}))
	require.Equal(t, 3, c.history.len())

	_, err := c.Chat(context.Background(), []Message{NewUserMessage("follow-up")}, testParams(), nil, true)
	require.NoError(t, err)
	require.Len(t, lastReq.Input.OfInputItemList, 4)
}

func TestSetChatHistoryRejectsInvalid(t *testing.T) {
	c, _ := newTestClient(t, func(responses.ResponseNewParams) (*responses.Response, error) {
		return textResponse("ok"), nil
	})
	err := c.SetChatHistory([]Message{{Role: "oracle", Content: "x"}})
	require.ErrorIs(t, err, ErrInvalidMessage)
}
