package filter

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"sync"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		e.workerCount = workers
	}
}

// WithBatchSize sets the number of records below which evaluation stays sequential
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		e.batchSize = size
	}
}

// ConcurrentEvaluator implements both Evaluator and BatchEvaluator
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
	pool        WorkerPool
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.workerCount = max(e.workerCount, 1)
	e.batchSize = max(e.batchSize, 1)
	e.pool = NewWorkerPool(e.workerCount)
	return e
}

// Select returns the indexes of the records filter matches, in order
func (e *ConcurrentEvaluator) Select(ctx context.Context, filter CompiledFilter, records []Record) ([]int, error) {
	if len(records) == 0 {
		return []int{}, nil
	}
	if len(records) < e.batchSize {
		return selectRange(filter, records, 0), nil
	}
	return e.selectConcurrent(ctx, filter, records)
}

// SelectBatch runs every filter against records. Filters that fail are
// left out of the result.
func (e *ConcurrentEvaluator) SelectBatch(ctx context.Context, filters map[string]CompiledFilter, records []Record) (map[string][]int, error) {
	results := make(map[string][]int, len(filters))
	if len(filters) == 0 || len(records) == 0 {
		return results, nil
	}

	// Filters run sequentially here; each one fans out over the pool.
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := e.Select(ctx, filters[name], records)
		if err != nil {
			continue
		}
		results[name] = matches
	}
	return results, nil
}

func selectRange(filter CompiledFilter, records []Record, offset int) []int {
	var matches []int
	for i, record := range records {
		if filter.Evaluate(record) {
			matches = append(matches, offset+i)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) selectConcurrent(ctx context.Context, filter CompiledFilter, records []Record) ([]int, error) {
	chunkSize := max(len(records)/e.workerCount, e.batchSize)
	chunks := (len(records) + chunkSize - 1) / chunkSize
	results := make([][]int, chunks)

	var wg sync.WaitGroup
	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(records))

		wg.Add(1)
		err := e.pool.Submit(ctx, func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			results[i] = selectRange(filter, records[start:end], start)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

// Stop gracefully stops the evaluator's worker pool
func (e *ConcurrentEvaluator) Stop(ctx context.Context) error {
	return e.pool.Stop(ctx)
}
