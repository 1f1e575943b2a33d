package booru

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/szuru/filter"
	"github.com/s0up4200/szuru/szurubooru"
)

// ErrNoFilter is returned when a filter is requested but none is configured
var ErrNoFilter = errors.New("no filter manager configured")

// SearchOptions contains options for searching resources
type SearchOptions struct {
	Query    string
	Where    string
	Limit    int
	PageSize int
	Eager    bool
}

// BatchOptions contains options for operations that change many posts
type BatchOptions struct {
	DryRun  bool
	Confirm bool
}

// TagEdit lists the tag names to add to and remove from each post
type TagEdit struct {
	Add    []string
	Remove []string
}

// Operations runs searches and batch edits against a szurubooru server
type Operations struct {
	client      szurubooru.API
	filters     *filter.Manager
	logger      zerolog.Logger
	formatter   Formatter
	concurrency int
	out         io.Writer
	in          io.Reader
}

// Option configures Operations
type Option func(*Operations)

// WithFilters sets the filter manager used for --where expressions
func WithFilters(m *filter.Manager) Option {
	return func(o *Operations) {
		o.filters = m
	}
}

// WithConcurrency bounds the number of posts a batch processes at once
func WithConcurrency(n int) Option {
	return func(o *Operations) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithFormatter replaces the console formatter
func WithFormatter(f Formatter) Option {
	return func(o *Operations) {
		o.formatter = f
	}
}

// WithIO sets where listings are printed and confirmations are read from
func WithIO(out io.Writer, in io.Reader) Option {
	return func(o *Operations) {
		o.out = out
		o.in = in
	}
}

// NewOperations creates a new Operations instance
func NewOperations(client szurubooru.API, logger zerolog.Logger, opts ...Option) *Operations {
	o := &Operations{
		client:      client,
		logger:      logger,
		formatter:   NewConsoleFormatter(),
		concurrency: DefaultConcurrency,
		out:         os.Stdout,
		in:          os.Stdin,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Client returns the underlying API client
func (o *Operations) Client() szurubooru.API {
	return o.client
}

// SearchPosts searches for posts matching the query and the optional filter
func (o *Operations) SearchPosts(ctx context.Context, opts SearchOptions) ([]*szurubooru.Post, error) {
	seq := o.client.IterPosts(ctx, opts.Query, o.searchOptions(opts)...)
	posts, err := selectMatching(ctx, o, seq, opts)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Msgf("Found %d posts matching query", len(posts))
	return posts, nil
}

// SearchTags searches for tags matching the query and the optional filter
func (o *Operations) SearchTags(ctx context.Context, opts SearchOptions) ([]*szurubooru.Tag, error) {
	seq := o.client.IterTags(ctx, opts.Query, o.searchOptions(opts)...)
	tags, err := selectMatching(ctx, o, seq, opts)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Msgf("Found %d tags matching query", len(tags))
	return tags, nil
}

// SearchPools searches for pools matching the query and the optional filter
func (o *Operations) SearchPools(ctx context.Context, opts SearchOptions) ([]*szurubooru.Pool, error) {
	seq := o.client.IterPools(ctx, opts.Query, o.searchOptions(opts)...)
	pools, err := selectMatching(ctx, o, seq, opts)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Msgf("Found %d pools matching query", len(pools))
	return pools, nil
}

func (o *Operations) searchOptions(opts SearchOptions) []szurubooru.SearchOption {
	var out []szurubooru.SearchOption
	if opts.PageSize > 0 {
		out = append(out, szurubooru.WithPageSize(opts.PageSize))
	}
	// filters see every field only when results are fetched whole
	if opts.Eager || opts.Where != "" {
		out = append(out, szurubooru.WithEagerLoad(true))
	}
	return out
}

type snapshotter interface {
	Snapshot() map[string]any
}

// selectMatching drains seq in page-sized chunks, keeps what the filter
// selects and stops once the limit is reached.
func selectMatching[T snapshotter](ctx context.Context, o *Operations, seq iter.Seq2[T, error], opts SearchOptions) ([]T, error) {
	where := strings.TrimSpace(opts.Where)
	if where != "" {
		if o.filters == nil {
			return nil, ErrNoFilter
		}
		if _, err := o.filters.Resolve(where); err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
	}

	chunk := opts.PageSize
	if chunk <= 0 {
		chunk = szurubooru.DefaultPageSize
	}

	var results, batch []T
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if where == "" {
			results = append(results, batch...)
		} else {
			records := make([]filter.Record, len(batch))
			for i, item := range batch {
				records[i] = item.Snapshot()
			}
			matches, err := o.filters.Select(ctx, where, records)
			if err != nil {
				return fmt.Errorf("failed to apply filter: %w", err)
			}
			for _, i := range matches {
				results = append(results, batch[i])
			}
		}
		batch = batch[:0]
		return nil
	}

	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		batch = append(batch, item)
		if len(batch) < chunk {
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// PrintPosts writes a listing of posts
func (o *Operations) PrintPosts(posts []*szurubooru.Post, options FormatOptions) {
	fmt.Fprint(o.out, o.formatter.FormatPostList(summarizePosts(posts), options))
}

// PrintTags writes a listing of tags
func (o *Operations) PrintTags(tags []*szurubooru.Tag, options FormatOptions) {
	summaries := make([]TagSummary, 0, len(tags))
	for _, tag := range tags {
		summaries = append(summaries, SummarizeTag(tag))
	}
	fmt.Fprint(o.out, o.formatter.FormatTagList(summaries, options))
}

// PrintPools writes a listing of pools
func (o *Operations) PrintPools(pools []*szurubooru.Pool, options FormatOptions) {
	summaries := make([]PoolSummary, 0, len(pools))
	for _, pool := range pools {
		summaries = append(summaries, SummarizePool(pool))
	}
	fmt.Fprint(o.out, o.formatter.FormatPoolList(summaries, options))
}

// PrintBatchResult writes the summary of a finished batch
func (o *Operations) PrintBatchResult(action string, result BatchResult) {
	fmt.Fprint(o.out, o.formatter.FormatBatchResult(action, result))
}

// EditTags adds and removes tags on every post and pushes the posts that changed
func (o *Operations) EditTags(ctx context.Context, posts []*szurubooru.Post, edit TagEdit, opts BatchOptions) (BatchResult, error) {
	if len(edit.Add) == 0 && len(edit.Remove) == 0 {
		return BatchResult{}, fmt.Errorf("%w: nothing to add or remove", szurubooru.ErrInvalidValue)
	}
	action := describeTagEdit(edit)

	preview := o.formatter.FormatPostList(summarizePosts(posts), FormatOptions{})

	return o.runBatch(ctx, action, preview, posts, opts, func(ctx context.Context, post *szurubooru.Post) error {
		current, err := post.TagNames(ctx)
		if err != nil {
			return err
		}
		updated := applyTagEdit(current, edit)
		if slices.Equal(current, updated) {
			return nil
		}
		if err := post.SetTagNames(ctx, updated); err != nil {
			return err
		}
		return post.Push(ctx)
	})
}

// SetSafety changes the safety rating of every post
func (o *Operations) SetSafety(ctx context.Context, posts []*szurubooru.Post, safety szurubooru.Safety, opts BatchOptions) (BatchResult, error) {
	if _, err := szurubooru.ParseSafety(string(safety)); err != nil {
		return BatchResult{}, err
	}

	preview := o.formatter.FormatPostList(summarizePosts(posts), FormatOptions{})

	return o.runBatch(ctx, "set safety to "+string(safety), preview, posts, opts, func(ctx context.Context, post *szurubooru.Post) error {
		current, err := post.Safety(ctx)
		if err != nil {
			return err
		}
		if current == safety {
			return nil
		}
		if err := post.SetSafety(ctx, safety); err != nil {
			return err
		}
		return post.Push(ctx)
	})
}

// DeletePosts deletes every post. Posts already gone count as deleted.
func (o *Operations) DeletePosts(ctx context.Context, posts []*szurubooru.Post, opts BatchOptions) (BatchResult, error) {
	preview := o.formatter.FormatPostsToDelete(summarizePosts(posts))

	return o.runBatch(ctx, "delete", preview, posts, opts, func(ctx context.Context, post *szurubooru.Post) error {
		id, err := post.ID(ctx)
		if err != nil {
			return err
		}
		return o.client.DeletePost(ctx, id)
	})
}

// runBatch prints preview before a dry run or a confirmation prompt, then
// applies fn to every post.
func (o *Operations) runBatch(ctx context.Context, action, preview string, posts []*szurubooru.Post, opts BatchOptions, fn func(context.Context, *szurubooru.Post) error) (BatchResult, error) {
	if len(posts) == 0 {
		o.logger.Info().Msg("No posts to process")
		return BatchResult{}, nil
	}

	if opts.DryRun || opts.Confirm {
		fmt.Fprint(o.out, preview)
	}

	if opts.DryRun {
		o.logger.Info().Str("action", action).Msg("DRY RUN MODE - No posts will be changed")
		return BatchResult{Requested: len(posts)}, nil
	}

	if opts.Confirm && !o.confirm(action, len(posts)) {
		o.logger.Info().Str("action", action).Msg("Cancelled by user")
		return BatchResult{Requested: len(posts)}, nil
	}

	result := applyBatch(ctx, o.concurrency, posts, fn)

	o.logger.Info().
		Str("action", action).
		Int("succeeded", len(result.Successful)).
		Int("failed", len(result.Failed)).
		Msg("Batch complete")

	for _, failure := range result.Failed {
		o.logger.Error().
			Err(failure.Err).
			Int("id", failure.ID).
			Str("action", action).
			Msg("Failed to process post")
	}

	return result, result.Err()
}

// confirm prompts the user for confirmation
func (o *Operations) confirm(action string, count int) bool {
	fmt.Fprintf(o.out, "\nAbout to %s on %d post(s). Continue? [y/N]: ", action, count)

	var response string
	fmt.Fscanln(o.in, &response)

	return strings.ToLower(strings.TrimSpace(response)) == "y"
}

// Close releases the filter workers
func (o *Operations) Close(ctx context.Context) error {
	if o.filters == nil {
		return nil
	}
	return o.filters.Close(ctx)
}

func summarizePosts(posts []*szurubooru.Post) []PostSummary {
	summaries := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, SummarizePost(post))
	}
	return summaries
}

// applyTagEdit removes, then appends, names case-insensitively while keeping
// the original order of the remaining tags.
func applyTagEdit(current []string, edit TagEdit) []string {
	hasName := func(list []string, name string) bool {
		return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, name) })
	}

	out := make([]string, 0, len(current)+len(edit.Add))
	for _, name := range current {
		if !hasName(edit.Remove, name) {
			out = append(out, name)
		}
	}
	for _, name := range edit.Add {
		name = strings.TrimSpace(name)
		if name != "" && !hasName(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func describeTagEdit(edit TagEdit) string {
	var parts []string
	if len(edit.Add) > 0 {
		parts = append(parts, "add "+strings.Join(edit.Add, ", "))
	}
	if len(edit.Remove) > 0 {
		parts = append(parts, "remove "+strings.Join(edit.Remove, ", "))
	}
	return "edit tags (" + strings.Join(parts, "; ") + ")"
}
