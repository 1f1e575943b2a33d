package booru

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPostList(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "No posts found\n", f.FormatPostList(nil, FormatOptions{}))

	posts := []PostSummary{
		{ID: 1, Safety: "safe", Type: "image", Tags: []string{"sun", "sky"}},
		{
			ID: 2, Safety: "unsafe", Type: "video", MIME: "video/webm",
			Width: 640, Height: 480, Flags: []string{"loop"}, Score: 3, FavoriteCount: 1,
			Source: "https://a.example\nhttps://b.example",
			Created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Dirty:   true,
		},
	}

	brief := f.FormatPostList(posts, FormatOptions{})
	assert.Contains(t, brief, "Posts (2):")
	assert.Contains(t, brief, "├── #1 [safe] image\n│   Tags: sun, sky\n│\n")
	assert.Contains(t, brief, "╰── #2 [unsafe] video (modified)\n")
	assert.NotContains(t, brief, "Score")

	detailed := f.FormatPostList(posts, FormatOptions{ShowDetails: true})
	assert.Contains(t, detailed, "    Size: 640x480 (video/webm)\n")
	assert.Contains(t, detailed, "    Flags: loop\n")
	assert.Contains(t, detailed, "    Score: 3 | Favorites: 1\n")
	assert.Contains(t, detailed, "    Source: https://a.example, https://b.example\n")
	assert.Contains(t, detailed, "    Created: 2024-03-01\n")

	single := f.FormatPostList(posts[:1], FormatOptions{})
	assert.Contains(t, single, "Post (1):")
}

func TestFormatPostsToDelete(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Empty(t, f.FormatPostsToDelete(nil))

	out := f.FormatPostsToDelete([]PostSummary{
		{ID: 4, Safety: "safe", FavoriteCount: 2},
		{ID: 5, Safety: "sketchy", Tags: []string{"moon"}},
	})
	assert.Contains(t, out, "Posts to be deleted (2):")
	assert.Contains(t, out, "├── #4 [safe]\n│   Favorited by 2 user(s)\n")
	assert.Contains(t, out, "╰── #5 [sketchy]\n    Tags: moon\n")
	assert.Contains(t, out, "Warning: 1 of these posts are in someone's favorites")
}

func TestFormatTagAndPoolLists(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "No tags found\n", f.FormatTagList(nil, FormatOptions{}))
	tags := f.FormatTagList([]TagSummary{
		{Names: []string{"sky", "heaven"}, Category: "meta", Usages: 12, Description: "above"},
	}, FormatOptions{ShowDetails: true})
	assert.Contains(t, tags, "╰── sky (meta, 12 usages)\n    Aliases: heaven\n    Description: above\n")

	assert.Equal(t, "No pools found\n", f.FormatPoolList(nil, FormatOptions{}))
	pools := f.FormatPoolList([]PoolSummary{
		{ID: 3, Names: []string{"trip", "vacation"}, Category: "default", PostCount: 4},
	}, FormatOptions{})
	assert.Contains(t, pools, "╰── #3 trip (default, 4 posts)\n")
	assert.NotContains(t, pools, "vacation")
}

func TestFormatBatchResult(t *testing.T) {
	out := NewConsoleFormatter().FormatBatchResult("edit tags", BatchResult{
		Requested:  3,
		Successful: []int{1, 2},
		Failed:     []ItemError{{ID: 3, Err: errors.New("conflict")}},
	})
	assert.Equal(t, "\nedit tags: 2 succeeded, 1 failed (of 3)\n  #3: conflict\n", out)
}

func TestBatchResultErr(t *testing.T) {
	assert.NoError(t, BatchResult{Requested: 2, Successful: []int{1, 2}}.Err())

	cause := errors.New("boom")
	err := BatchResult{Failed: []ItemError{{ID: 7, Err: cause}}}.Err()
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "post 7: boom")
}
