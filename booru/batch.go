package booru

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/szuru/szurubooru"
)

const (
	// DefaultConcurrency bounds the number of posts processed at once
	DefaultConcurrency = 5
	// MaxConcurrency is the upper limit accepted from configuration
	MaxConcurrency = 20
)

// BatchResult contains the results of a batch operation
type BatchResult struct {
	Requested  int
	Successful []int
	Failed     []ItemError
}

// ItemError contains information about a failed item of a batch
type ItemError struct {
	ID  int
	Err error
}

// Error implements the error interface
func (e ItemError) Error() string {
	return fmt.Sprintf("post %d: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Err aggregates every failure, or returns nil when the batch succeeded
func (r BatchResult) Err() error {
	var result *multierror.Error
	for _, failure := range r.Failed {
		result = multierror.Append(result, failure)
	}
	return result.ErrorOrNil()
}

// applyBatch runs fn for every post with bounded concurrency. Each post
// handle is owned by exactly one goroutine. Individual failures never
// stop the batch; results are sorted by post id.
func applyBatch(ctx context.Context, concurrency int, posts []*szurubooru.Post, fn func(ctx context.Context, post *szurubooru.Post) error) BatchResult {
	result := BatchResult{Requested: len(posts)}
	if len(posts) == 0 {
		return result
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(concurrency, MaxConcurrency)))

	var mu sync.Mutex
	for _, post := range posts {
		g.Go(func() error {
			id := intField(post.Committed(), "id")
			err := fn(ctx, post)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, ItemError{ID: id, Err: err})
			} else {
				result.Successful = append(result.Successful, id)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(result.Successful)
	slices.SortFunc(result.Failed, func(a, b ItemError) int { return a.ID - b.ID })
	return result
}
