package booru

// Formatter defines the interface for formatting console output
type Formatter interface {
	FormatPostList(posts []PostSummary, options FormatOptions) string
	FormatPostsToDelete(posts []PostSummary) string
	FormatTagList(tags []TagSummary, options FormatOptions) string
	FormatPoolList(pools []PoolSummary, options FormatOptions) string
	FormatBatchResult(action string, result BatchResult) string
}

// FormatOptions contains options for formatting output
type FormatOptions struct {
	ShowDetails bool
}
