package llm

// TrajectoryEntry is the record forwarded to a TrajectorySink after each
// successful call: the caller's original messages, the reconciled
// response, and what was offered to the provider.
type TrajectoryEntry struct {
	Provider string       `json:"provider"`
	Model    string       `json:"model"`
	Messages []Message    `json:"messages"`
	Response Response     `json:"response"`
	Tools    []ToolSchema `json:"tools,omitempty"`
}

// TrajectorySink persists exchange records for later inspection.
// Forwarding is best effort: a sink failure is logged and never masks
// the primary response.
type TrajectorySink interface {
	Record(entry TrajectoryEntry) error
}
