package llm

import (
	"encoding/json"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	bpeOnce sync.Once
	bpeEnc  tokenizer.Codec
)

// getEncoder returns a singleton BPE encoder (o200k_base for the GPT-4o
// family). Falls back to cl100k_base if o200k is unavailable.
func getEncoder() tokenizer.Codec {
	bpeOnce.Do(func() {
		var err error
		bpeEnc, err = tokenizer.Get(tokenizer.O200kBase)
		if err != nil {
			// Fallback to cl100k_base (GPT-4/3.5).
			bpeEnc, err = tokenizer.Get(tokenizer.Cl100kBase)
			if err != nil {
				panic("failed to initialize tiktoken encoder: " + err.Error())
			}
		}
	})
	return bpeEnc
}

// CountTokens returns the number of BPE tokens in the given text.
func CountTokens(text string) int {
	enc := getEncoder()
	ids, _, _ := enc.Encode(text)
	return len(ids)
}

// CountMessageTokens estimates the token count for a single Message,
// following the OpenAI counting convention: 4 overhead tokens per
// message (role, separators) plus the payload. Tool calls count their
// name and serialized arguments; tool results count their output text.
func CountMessageTokens(m Message) int {
	tokens := 4 // per-message overhead: <|start|>role<|sep|>...<|end|>
	if m.Role != "" {
		tokens += CountTokens(m.Role)
	}
	switch {
	case m.ToolCall != nil:
		tokens += CountTokens(m.ToolCall.Name)
		tokens += EstimateJSONTokens(m.ToolCall.Arguments)
		tokens += 3 // overhead per tool call (id, type, function)
	case m.ToolResult != nil:
		tokens += CountTokens(m.ToolResult.CallID)
		tokens += CountTokens(m.ToolResult.Output())
	default:
		tokens += CountTokens(m.Content)
	}
	return tokens
}

// CountMessagesTokens returns the total token count for a slice of
// Messages, plus 3 tokens for the assistant reply priming.
func CountMessagesTokens(messages []Message) int {
	tokens := 3 // every reply is primed with <|start|>assistant<|message|>
	for _, m := range messages {
		tokens += CountMessageTokens(m)
	}
	return tokens
}

// EstimateJSONTokens estimates the token count for an arbitrary value
// by marshaling it to JSON and counting tokens on the result.
func EstimateJSONTokens(v any) int {
	js, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return CountTokens(string(js))
}
