package filter

import (
	"errors"
	"fmt"
)

// ErrUnknownFilter is returned when a preset name is not registered
var ErrUnknownFilter = errors.New("unknown filter")

// Error types for filter operations
type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated against a record
	EvaluationError struct {
		Expression string
		Record     string
		Reason     string
		Err        error
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on %s: %s", e.Expression, e.Record, e.Reason)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// describe names a record in error messages.
func describe(record Record) string {
	if id, ok := record["id"]; ok {
		return fmt.Sprintf("id %v", id)
	}
	if names, ok := record["names"].([]any); ok && len(names) > 0 {
		return fmt.Sprintf("%q", names[0])
	}
	if name, ok := record["name"].(string); ok {
		return fmt.Sprintf("%q", name)
	}
	return "record"
}
