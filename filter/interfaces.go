package filter

import (
	"context"
)

// Record is the JSON snapshot of one resource: committed server state with
// pending edits applied, as returned by (*szurubooru.Resource).Snapshot.
type Record = map[string]any

// Filter defines the basic interface for record filters
type Filter interface {
	// Evaluate checks if a record matches the filter criteria. Records the
	// expression cannot be evaluated against do not match.
	Evaluate(record Record) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the evaluation error reported
	Match(record Record) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator selects the records a filter matches
type Evaluator interface {
	// Select returns the indexes of matching records in ascending order
	Select(ctx context.Context, filter CompiledFilter, records []Record) ([]int, error)
}

// BatchEvaluator evaluates multiple filters concurrently
type BatchEvaluator interface {
	// SelectBatch runs every filter against records
	SelectBatch(ctx context.Context, filters map[string]CompiledFilter, records []Record) (map[string][]int, error)
}

// BatchResult represents the result of evaluating one named filter
type BatchResult struct {
	FilterName string
	Matches    []int
	Error      error
}

// WorkerPool defines the interface for concurrent work execution
type WorkerPool interface {
	// Submit queues work, blocking while the pool is saturated
	Submit(ctx context.Context, work func()) error

	// Stop gracefully stops the worker pool
	Stop(ctx context.Context) error
}
