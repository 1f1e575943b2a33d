package szurubooru

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearchOptions controls a paginated search.
type SearchOptions struct {
	// PageSize is the number of results requested per page.
	PageSize int
	// EagerLoad fetches every field instead of the kind's lazy field set.
	EagerLoad bool
	// MaxPages stops the walk after this many pages; 0 means no cap.
	MaxPages int
}

// SearchOption configures a search.
type SearchOption func(*SearchOptions)

// WithPageSize sets the page size; non-positive sizes keep the default.
func WithPageSize(size int) SearchOption {
	return func(o *SearchOptions) {
		if size > 0 {
			o.PageSize = size
		}
	}
}

// WithEagerLoad requests every field instead of the lazy field set.
func WithEagerLoad(eager bool) SearchOption {
	return func(o *SearchOptions) {
		o.EagerLoad = eager
	}
}

// WithMaxPages caps the number of pages fetched; 0 removes the cap.
func WithMaxPages(pages int) SearchOption {
	return func(o *SearchOptions) {
		if pages >= 0 {
			o.MaxPages = pages
		}
	}
}

func (c *Client) searchOptions(opts []SearchOption) SearchOptions {
	o := SearchOptions{
		PageSize: c.pageSize,
		MaxPages: c.maxPages,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// search walks the kind's collection page by page. Each range over the
// returned sequence starts again from offset 0.
func search[T any](ctx context.Context, c *Client, k *kind, wrap func(*Client, map[string]any) T, query string, opts SearchOptions) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		offset, total := 0, -1

		for page := 0; total < 0 || offset < total; page++ {
			if opts.MaxPages > 0 && page >= opts.MaxPages {
				c.logger.Warn().
					Str("kind", k.name).
					Int("pages", page).
					Int("offset", offset).
					Int("total", total).
					Msg("Search stopped at page limit")
				return
			}

			params := url.Values{}
			params.Set("offset", strconv.Itoa(offset))
			params.Set("limit", strconv.Itoa(opts.PageSize))
			params.Set("query", query)
			if !opts.EagerLoad && len(k.lazyFields) > 0 {
				params.Set("fields", strings.Join(k.lazyFields, ","))
			}

			data, err := c.Call(ctx, http.MethodGet, k.collection, params, nil)
			if err != nil {
				yield(zero, fmt.Errorf("failed to search %s: %w", k.name, err))
				return
			}

			results, _ := data["results"].([]any)
			if n, ok := intValue(data["total"]); ok {
				total = n
			} else if len(results) < opts.PageSize {
				// without a total only a short page marks the end
				total = offset + len(results)
			} else {
				total = -1
			}

			c.logger.Debug().
				Str("kind", k.name).
				Int("offset", offset).
				Int("count", len(results)).
				Int("total", total).
				Msg("Retrieved search page")

			for _, item := range results {
				seed, ok := item.(map[string]any)
				if !ok {
					continue
				}
				if !yield(wrap(c, seed), nil) {
					return
				}
			}

			if len(results) == 0 {
				return
			}
			offset += len(results)
		}
	}
}

// searchUnpaged fetches a collection the server returns in one response.
func searchUnpaged[T any](ctx context.Context, c *Client, k *kind, wrap func(*Client, map[string]any) T) ([]T, error) {
	data, err := c.Call(ctx, http.MethodGet, k.collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", k.name, err)
	}

	results, _ := data["results"].([]any)
	out := make([]T, 0, len(results))
	for _, item := range results {
		if seed, ok := item.(map[string]any); ok {
			out = append(out, wrap(c, seed))
		}
	}
	return out, nil
}

func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
