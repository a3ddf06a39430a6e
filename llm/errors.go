package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for the deterministic failure modes. None of these are
// ever retried: a malformed request cannot succeed on a second attempt.
var (
	// ErrMissingAPIKey is returned at construction when no API key is
	// resolvable from config or environment.
	ErrMissingAPIKey = errors.New("OpenAI API key not provided")

	// ErrInvalidMessage marks a message with a bad role or empty content.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrTranslation marks tool-call arguments that do not survive a JSON
	// round trip, or a tool schema that is not valid JSON Schema.
	ErrTranslation = errors.New("translation failed")
)

// ExhaustedRetriesError is the terminal failure after every network
// attempt failed. Log holds the numbered per-attempt diagnostics in
// order. Callers must treat it as a hard failure of the turn.
type ExhaustedRetriesError struct {
	Attempts int
	Log      string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("failed to get response from OpenAI after %d retries: %s", e.Attempts, e.Log)
}
