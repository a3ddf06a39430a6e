package llm

import "strings"

// Role constants — provider-agnostic.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is the provider-agnostic conversation turn. Exactly one of
// Content, ToolCall or ToolResult is populated; the translator rejects
// anything else. A plain text message must have non-empty Content.
type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// NewSystemMessage returns a system text message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage returns a user text message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage returns an assistant text message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolCallMessage wraps a tool call as an assistant turn.
func NewToolCallMessage(tc ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCall: &tc}
}

// NewToolResultMessage wraps a tool result as a user turn.
func NewToolResultMessage(tr ToolResult) Message {
	return Message{Role: RoleUser, ToolResult: &tr}
}

// ToolCall is a single function call requested by the model.
// CallID is the provider's correlation id that a later ToolResult must
// reference; ID is the provider's output item id.
type ToolCall struct {
	CallID    string         `json:"call_id"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult carries the outcome of executing a tool call. At least one
// of Result and Error should be set.
type ToolResult struct {
	CallID string `json:"call_id"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Output serializes the result for the provider: the success payload,
// then the error prefixed with "\nError: " when present, trimmed.
func (tr ToolResult) Output() string {
	out := tr.Result
	if tr.Error != "" {
		out += "\nError: " + tr.Error
	}
	return strings.TrimSpace(out)
}

// ToolSchema declares a callable function to the provider. Parameters is
// a JSON-Schema object describing the argument shape; declarations are
// sent in strict mode, so the provider enforces that shape before
// invoking the tool.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage carries the token accounting of a single call. The cache-read
// and reasoning counts are zero when the provider reports none.
type Usage struct {
	InputTokens          int64 `json:"input_tokens"`
	OutputTokens         int64 `json:"output_tokens"`
	CacheReadInputTokens int64 `json:"cache_read_input_tokens"`
	ReasoningTokens      int64 `json:"reasoning_tokens"`
}

// Response is the reconciled result of one provider call. Usage is nil
// when the provider reported no usage section. ToolCalls is nil when the
// model made no calls — never an empty non-nil slice; callers rely on
// the distinction.
type Response struct {
	Content      string     `json:"content"`
	Usage        *Usage     `json:"usage,omitempty"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
}

// ModelParameters selects the model and sampling settings for a call.
type ModelParameters struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int64   `json:"max_tokens"`
	MaxRetries  int     `json:"max_retries"`
}
