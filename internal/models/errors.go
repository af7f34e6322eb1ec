package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoIndex      = errors.New("no index configured")
	ErrInvalidInput = errors.New("invalid input")
)

// SubmissionError reports that the provider rejected a task submission
// (quota exceeded, malformed content, bad index id). Submissions are never
// retried automatically; the error is surfaced to the caller as-is.
type SubmissionError struct {
	StatusCode int
	Detail     string
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("task submission rejected (HTTP %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("task submission rejected: %s", e.Detail)
}

// TransientError wraps a communication-level failure (network error, 5xx,
// 429) that is safe to retry. The poll loop retries these a small fixed
// number of times before escalating.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TaskFailedError reports an authoritative terminal failure from the
// provider. Detail is passed through verbatim and the task is never retried.
type TaskFailedError struct {
	TaskID string
	Detail string
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Detail)
}

// AwaitTimeoutError reports that the caller-supplied deadline expired while
// the task was still pending or processing. The remote task is not cancelled
// and may still complete; TaskID remains valid for a later status check.
type AwaitTimeoutError struct {
	TaskID     string
	LastStatus TaskStatus
	Waited     time.Duration
}

func (e *AwaitTimeoutError) Error() string {
	return fmt.Sprintf("gave up waiting for task %s after %s (last status %q); the task may still complete, re-check it later",
		e.TaskID, e.Waited.Round(time.Millisecond), e.LastStatus)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
