package misc

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	debugEnabled  bool
	debugInitOnce sync.Once
)

// initDebugFlag reads the AGENTRELAY_DEBUG environment variable once.
func initDebugFlag() {
	debugInitOnce.Do(func() {
		val := os.Getenv("AGENTRELAY_DEBUG")
		debugEnabled = val == "true" || val == "1"
	})
}

// ReloadDebugFlag forces re-reading AGENTRELAY_DEBUG (call after the
// environment changes).
func ReloadDebugFlag() {
	val := os.Getenv("AGENTRELAY_DEBUG")
	debugEnabled = val == "true" || val == "1"
}

// DebugEnabled reports whether debug output is on, so callers can skip
// computing expensive log arguments.
func DebugEnabled() bool {
	initDebugFlag()
	return debugEnabled
}

func Info(mod string, format string, v ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Printf("[%s][*][%s]: %s\n", timestamp, mod, fmt.Sprintf(format, v...))
}

func Warn(mod string, format string, v ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(os.Stderr, "[%s][!][%s]: %s\n", timestamp, mod, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	initDebugFlag()
	if !debugEnabled {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Printf("[%s][DEBUG]: %s\n", timestamp, fmt.Sprintf(format, v...))
}
