package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"AgentRelay/misc"
)

// BackoffPolicy maps a 1-based attempt number to the delay slept before
// the next attempt. Policies may ignore the attempt number.
type BackoffPolicy func(attempt int) time.Duration

// DefaultBackoff sleeps a uniformly random whole number of seconds in
// [3, 30]. Coarse jitter: the point is to spread herds of retries
// against a rate-limited endpoint, not to converge quickly.
func DefaultBackoff(int) time.Duration {
	return time.Duration(3+rand.IntN(28)) * time.Second
}

// invokeWithRetry runs call up to maxRetries times. Each failure appends
// a numbered diagnostic line; the log is discarded on success and
// embedded in the terminal ExhaustedRetriesError otherwise. Only the
// network call is retried — translation and validation failures never
// reach this loop.
func invokeWithRetry[T any](ctx context.Context, maxRetries int, backoff BackoffPolicy, call func(context.Context) (*T, error)) (*T, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if backoff == nil {
		backoff = DefaultBackoff
	}

	var errLog strings.Builder
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := call(ctx)
		if err == nil {
			return resp, nil
		}
		fmt.Fprintf(&errLog, "Error %d: %s\n", attempt, err)
		misc.Debug("provider call failed (attempt %d/%d): %s", attempt, maxRetries, err)
		if attempt == maxRetries {
			break
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, &ExhaustedRetriesError{Attempts: maxRetries, Log: errLog.String()}
}
