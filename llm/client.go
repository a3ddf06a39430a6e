package llm

import "context"

// Client is the uniform contract an agent loop talks to. One instance
// serves one conversation: Chat is blocking and the history it
// accumulates is private mutable state, so concurrent Chat calls on the
// same instance must be serialized by the caller.
type Client interface {
	// Chat sends messages (with optional tool declarations) and returns
	// the reconciled response. When reuseHistory is true the stored wire
	// history is prefixed to the request; either way the exchange is
	// recorded into history on success.
	Chat(ctx context.Context, messages []Message, params ModelParameters, tools []ToolSchema, reuseHistory bool) (*Response, error)

	// SetChatHistory replaces the stored history wholesale with the
	// translation of the given messages.
	SetChatHistory(messages []Message) error

	// SupportsToolCalling reports whether the configured model family can
	// accept function declarations.
	SupportsToolCalling(params ModelParameters) bool
}
