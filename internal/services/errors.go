package services

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable marks vector index operations that failed because
	// the backing store could not be reached. Callers must surface it and
	// never treat it as an empty retrieval result.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrLLMUnavailable marks an LLM call that exhausted its retry budget.
	ErrLLMUnavailable = errors.New("llm service unavailable")
)

// InvalidOutputError reports an LLM response that could not be parsed as
// JSON or failed schema validation. It is fatal for the current job
// attempt and never retried.
type InvalidOutputError struct {
	Reason string
	Err    error
}

func (e *InvalidOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid llm output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid llm output: %s", e.Reason)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// DocumentParseError reports an unreadable or empty input document.
type DocumentParseError struct {
	Path string
	Err  error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to parse document %s: %v", e.Path, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }
