package llm

import "sync/atomic"

// UsageTally accumulates token usage across the calls made by one
// client. Atomic so callers can snapshot from another goroutine while a
// call is in flight.
type UsageTally struct {
	input     atomic.Int64
	output    atomic.Int64
	cacheRead atomic.Int64
	reasoning atomic.Int64
}

// Add accumulates usage from a single API call.
func (t *UsageTally) Add(u Usage) {
	t.input.Add(u.InputTokens)
	t.output.Add(u.OutputTokens)
	t.cacheRead.Add(u.CacheReadInputTokens)
	t.reasoning.Add(u.ReasoningTokens)
}

// Snapshot returns the current cumulative usage.
func (t *UsageTally) Snapshot() Usage {
	return Usage{
		InputTokens:          t.input.Load(),
		OutputTokens:         t.output.Load(),
		CacheReadInputTokens: t.cacheRead.Load(),
		ReasoningTokens:      t.reasoning.Load(),
	}
}
