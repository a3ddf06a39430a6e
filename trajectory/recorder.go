// Package trajectory persists LLM exchanges as JSON Lines for later
// inspection. It is the stock implementation of llm.TrajectorySink; the
// adapter treats any sink as best effort.
package trajectory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"AgentRelay/llm"
)

// record is one line in the trajectory file.
type record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	llm.TrajectoryEntry
}

// JSONLRecorder appends one JSON object per exchange to a file. Safe for
// use by multiple clients sharing a file.
type JSONLRecorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewJSONLRecorder opens (or creates) the trajectory file for append.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trajectory dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trajectory file: %w", err)
	}
	return &JSONLRecorder{f: f, enc: json.NewEncoder(f)}, nil
}

// Record implements llm.TrajectorySink.
func (r *JSONLRecorder) Record(entry llm.TrajectoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(record{
		ID:              uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		TrajectoryEntry: entry,
	})
}

// Close flushes nothing (writes are unbuffered) and closes the file.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f.Close()
}
