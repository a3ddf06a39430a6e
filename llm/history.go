package llm

// conversationHistory owns the provider-native wire history for one
// adapter instance. Single writer: only the owning client touches it,
// and only from its blocking call path. Callers needing concurrent
// conversations use one client per conversation.
//
// The item type is generic because the Responses API and the Chat
// Completions API accumulate different wire shapes.
type conversationHistory[T any] struct {
	items []T
}

// set replaces the stored history wholesale.
func (h *conversationHistory[T]) set(items []T) {
	h.items = items
}

// mergeForCall returns the input list for one call: stored history
// prefixed before the new items when reuse is true, the new items alone
// when false. The returned slice is always a fresh copy so the caller
// cannot alias stored state.
func (h *conversationHistory[T]) mergeForCall(newItems []T, reuse bool) []T {
	var merged []T
	if reuse {
		merged = make([]T, 0, len(h.items)+len(newItems))
		merged = append(merged, h.items...)
	} else {
		merged = make([]T, 0, len(newItems))
	}
	return append(merged, newItems...)
}

// record overwrites history with what was actually sent plus what the
// provider produced. This runs after every successful call regardless of
// the reuse flag for that call: reuse controls what is sent, never what
// is recorded.
func (h *conversationHistory[T]) record(sent, output []T) {
	items := make([]T, 0, len(sent)+len(output))
	items = append(items, sent...)
	h.items = append(items, output...)
}

// len reports the number of stored wire items.
func (h *conversationHistory[T]) len() int {
	return len(h.items)
}

// tokens estimates the token footprint of the stored history by
// serializing it and counting BPE tokens.
func (h *conversationHistory[T]) tokens() int {
	total := 0
	for _, item := range h.items {
		total += EstimateJSONTokens(item)
	}
	return total
}
