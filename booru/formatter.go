package booru

import (
	"fmt"
	"strings"
)

// ConsoleFormatter provides console output formatting for booru resources
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

var _ Formatter = (*ConsoleFormatter)(nil)

// tree writes one header line plus indented detail lines per item, joined
// with box-drawing characters.
func tree(sb *strings.Builder, count int, item func(i int) (string, []string)) {
	for i := range count {
		isLast := i == count-1
		prefix := "├"
		indent := "│   "
		if isLast {
			prefix = "╰"
			indent = "    "
		}

		header, details := item(i)
		fmt.Fprintf(sb, "%s── %s\n", prefix, header)
		for _, line := range details {
			fmt.Fprintf(sb, "%s%s\n", indent, line)
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}
}

func plural(sb *strings.Builder, noun string, count int, suffix string) {
	sb.WriteString("\n" + noun)
	if count != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(sb, "%s (%d):\n\n", suffix, count)
}

// FormatPostList formats a list of posts for console display
func (f *ConsoleFormatter) FormatPostList(posts []PostSummary, options FormatOptions) string {
	if len(posts) == 0 {
		return "No posts found\n"
	}

	var sb strings.Builder
	plural(&sb, "Post", len(posts), "")
	tree(&sb, len(posts), func(i int) (string, []string) {
		post := posts[i]
		header := fmt.Sprintf("#%d", post.ID)
		if post.Safety != "" {
			header += " [" + post.Safety + "]"
		}
		if post.Type != "" {
			header += " " + post.Type
		}
		if post.Dirty {
			header += " (modified)"
		}

		var details []string
		if len(post.Tags) > 0 {
			details = append(details, "Tags: "+strings.Join(post.Tags, ", "))
		}
		if options.ShowDetails {
			details = append(details, postDetails(post)...)
		}
		return header, details
	})
	sb.WriteString("\n")
	return sb.String()
}

func postDetails(post PostSummary) []string {
	var details []string
	if post.Width > 0 && post.Height > 0 {
		size := fmt.Sprintf("Size: %dx%d", post.Width, post.Height)
		if post.MIME != "" {
			size += " (" + post.MIME + ")"
		}
		details = append(details, size)
	}
	if len(post.Flags) > 0 {
		details = append(details, "Flags: "+strings.Join(post.Flags, ", "))
	}
	details = append(details, fmt.Sprintf("Score: %d | Favorites: %d", post.Score, post.FavoriteCount))
	if post.Source != "" {
		details = append(details, "Source: "+strings.ReplaceAll(post.Source, "\n", ", "))
	}
	if !post.Created.IsZero() {
		details = append(details, "Created: "+post.Created.Format("2006-01-02"))
	}
	return details
}

// FormatPostsToDelete formats posts for deletion confirmation
func (f *ConsoleFormatter) FormatPostsToDelete(posts []PostSummary) string {
	if len(posts) == 0 {
		return ""
	}

	var sb strings.Builder
	var favorited int

	plural(&sb, "Post", len(posts), " to be deleted")
	tree(&sb, len(posts), func(i int) (string, []string) {
		post := posts[i]
		if post.FavoriteCount > 0 {
			favorited++
		}

		var details []string
		if len(post.Tags) > 0 {
			details = append(details, "Tags: "+strings.Join(post.Tags, ", "))
		}
		if post.FavoriteCount > 0 {
			details = append(details, fmt.Sprintf("Favorited by %d user(s)", post.FavoriteCount))
		}
		return fmt.Sprintf("#%d [%s]", post.ID, post.Safety), details
	})

	if favorited > 0 {
		fmt.Fprintf(&sb, "\nWarning: %d of these posts are in someone's favorites\n", favorited)
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatTagList formats a list of tags for console display
func (f *ConsoleFormatter) FormatTagList(tags []TagSummary, options FormatOptions) string {
	if len(tags) == 0 {
		return "No tags found\n"
	}

	var sb strings.Builder
	plural(&sb, "Tag", len(tags), "")
	tree(&sb, len(tags), func(i int) (string, []string) {
		tag := tags[i]
		name := "(unnamed)"
		if len(tag.Names) > 0 {
			name = tag.Names[0]
		}
		header := fmt.Sprintf("%s (%s, %d usages)", name, tag.Category, tag.Usages)

		var details []string
		if len(tag.Names) > 1 {
			details = append(details, "Aliases: "+strings.Join(tag.Names[1:], ", "))
		}
		if options.ShowDetails && tag.Description != "" {
			details = append(details, "Description: "+tag.Description)
		}
		return header, details
	})
	sb.WriteString("\n")
	return sb.String()
}

// FormatPoolList formats a list of pools for console display
func (f *ConsoleFormatter) FormatPoolList(pools []PoolSummary, options FormatOptions) string {
	if len(pools) == 0 {
		return "No pools found\n"
	}

	var sb strings.Builder
	plural(&sb, "Pool", len(pools), "")
	tree(&sb, len(pools), func(i int) (string, []string) {
		pool := pools[i]
		name := "(unnamed)"
		if len(pool.Names) > 0 {
			name = pool.Names[0]
		}
		header := fmt.Sprintf("#%d %s (%s, %d posts)", pool.ID, name, pool.Category, pool.PostCount)

		var details []string
		if options.ShowDetails && len(pool.Names) > 1 {
			details = append(details, "Aliases: "+strings.Join(pool.Names[1:], ", "))
		}
		return header, details
	})
	sb.WriteString("\n")
	return sb.String()
}

// FormatBatchResult summarizes a finished batch
func (f *ConsoleFormatter) FormatBatchResult(action string, result BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s: %d succeeded, %d failed (of %d)\n",
		action, len(result.Successful), len(result.Failed), result.Requested)
	for _, failure := range result.Failed {
		fmt.Fprintf(&sb, "  #%d: %v\n", failure.ID, failure.Err)
	}
	return sb.String()
}
