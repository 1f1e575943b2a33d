package szurubooru

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultPageSize is the number of results requested per search page.
	DefaultPageSize = 20
	// DefaultMaxPages caps how many pages a single search walks.
	DefaultMaxPages = 10000
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout    time.Duration
	userAgent  string
	pageSize   int
	maxPages   int
	httpClient Doer
}

// WithTimeout sets the timeout of the default HTTP client.
// It has no effect when WithHTTPClient is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client used for every request.
func WithHTTPClient(doer Doer) Option {
	return func(o *clientOptions) {
		o.httpClient = doer
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithDefaultPageSize sets the page size used by searches that don't override it.
func WithDefaultPageSize(size int) Option {
	return func(o *clientOptions) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithDefaultMaxPages sets the page cap used by searches that don't override it.
func WithDefaultMaxPages(pages int) Option {
	return func(o *clientOptions) {
		if pages > 0 {
			o.maxPages = pages
		}
	}
}
