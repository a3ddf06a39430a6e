package llm

// SanitizeMessages repairs a full conversation before it is stored as
// history. Two fixups:
//
//   - user/system messages stuck between a tool call and its results are
//     deferred until after the result block, since the API expects
//     results to follow their calls directly;
//   - tool results whose call id matches no prior tool call are dropped.
//
// Per-call message batches are NOT sanitized: their tool results
// correlate to calls already recorded in history, which this function
// cannot see.
func SanitizeMessages(messages []Message) []Message {
	if len(messages) == 0 {
		return messages
	}
	allowed := map[string]bool{}
	out := make([]Message, 0, len(messages))
	var deferred []Message
	pendingResults := false
	for _, m := range messages {
		switch {
		case m.ToolCall != nil:
			if len(deferred) > 0 {
				out = append(out, deferred...)
				deferred = nil
			}
			if m.ToolCall.CallID != "" {
				allowed[m.ToolCall.CallID] = true
			}
			pendingResults = true
			out = append(out, m)

		case m.ToolResult != nil:
			if m.ToolResult.CallID != "" && allowed[m.ToolResult.CallID] {
				out = append(out, m)
			}

		case m.Role == RoleAssistant:
			if len(deferred) > 0 {
				out = append(out, deferred...)
				deferred = nil
			}
			pendingResults = false
			out = append(out, m)

		default:
			// user / system message
			if pendingResults {
				deferred = append(deferred, m)
			} else {
				out = append(out, m)
			}
		}
	}
	if len(deferred) > 0 {
		out = append(out, deferred...)
	}
	return out
}
