package ingestion

import (
	"errors"
	"fmt"
)

// ErrorKind tags a pipeline failure so the orchestrator can pick a backoff
// class without inspecting concrete error types.
type ErrorKind int

const (
	ErrorKindUnexpected ErrorKind = iota
	ErrorKindService
	ErrorKindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindService:
		return "service"
	case ErrorKindTransport:
		return "transport"
	default:
		return "unexpected"
	}
}

// StageError wraps a failure from one pipeline stage. Status carries the HTTP
// status code for service errors and is zero otherwise.
type StageError struct {
	Kind   ErrorKind
	Stage  string
	Status int
	Err    error
}

func (e *StageError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error in stage %s (status %d): %v", e.Kind, e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error in stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ClassifyError maps an arbitrary error onto its ErrorKind. Errors that do
// not carry a StageError anywhere in their chain count as unexpected.
func ClassifyError(err error) ErrorKind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	return ErrorKindUnexpected
}

// RetryExhaustedError is terminal: the run failed on every attempt up to the
// retry ceiling.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("ingestion run failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// ErrRunOverlap is returned when another ingestion run already holds the run
// lock. Overlapping runs are rejected, not retried.
var ErrRunOverlap = errors.New("ingestion run already in flight")
