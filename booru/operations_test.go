package booru

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/szuru/filter"
	"github.com/s0up4200/szuru/szurubooru"
)

func newTestOperations(t *testing.T, f *fakeBooru, input string) (*Operations, *bytes.Buffer) {
	t.Helper()

	manager := filter.NewManager(filter.WithEvaluator(filter.NewConcurrentEvaluator(filter.WithWorkers(2))))
	require.NoError(t, manager.RegisterFilter("unsafe", `safety == "unsafe"`))

	var out bytes.Buffer
	ops := NewOperations(newTestClient(t, f), zerolog.Nop(),
		WithFilters(manager),
		WithConcurrency(3),
		WithIO(&out, strings.NewReader(input)),
	)
	t.Cleanup(func() { _ = ops.Close(context.Background()) })
	return ops, &out
}

func postIDs(t *testing.T, posts []*szurubooru.Post) []int {
	t.Helper()
	ids := make([]int, 0, len(posts))
	for _, post := range posts {
		id, err := post.ID(context.Background())
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func safetyFixture() *fakeBooru {
	return newFakeBooru(
		fakePost(1, "safe", "sun"),
		fakePost(2, "unsafe", "sun", "moon"),
		fakePost(3, "sketchy", "moon"),
		fakePost(4, "unsafe", "star"),
		fakePost(5, "safe", "sun", "star"),
	)
}

func TestSearchPostsWithFilter(t *testing.T) {
	tests := []struct {
		name  string
		where string
		limit int
		want  []int
	}{
		{name: "no filter", want: []int{1, 2, 3, 4, 5}},
		{name: "preset", where: "unsafe", want: []int{2, 4}},
		{name: "preset reference", where: "@unsafe", want: []int{2, 4}},
		{name: "expression", where: `hasTag("sun") and safety != "unsafe"`, want: []int{1, 5}},
		{name: "limit after filter", where: `hasTag("moon") or hasTag("star")`, limit: 2, want: []int{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, _ := newTestOperations(t, safetyFixture(), "")

			posts, err := ops.SearchPosts(context.Background(), SearchOptions{
				Where:    tt.where,
				Limit:    tt.limit,
				PageSize: 2,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, postIDs(t, posts))
		})
	}
}

func TestSearchPostsStopsAtLimit(t *testing.T) {
	posts := make([]map[string]any, 0, 45)
	for id := 1; id <= 45; id++ {
		posts = append(posts, fakePost(id, "safe", "sun"))
	}
	f := newFakeBooru(posts...)
	ops, _ := newTestOperations(t, f, "")

	found, err := ops.SearchPosts(context.Background(), SearchOptions{Limit: 25, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, found, 25)
	assert.Equal(t, 3, f.count("GET", "/api/posts"))
}

func TestSearchPostsInvalidFilter(t *testing.T) {
	f := safetyFixture()
	ops, _ := newTestOperations(t, f, "")

	_, err := ops.SearchPosts(context.Background(), SearchOptions{Where: "@missing"})
	assert.ErrorIs(t, err, filter.ErrUnknownFilter)

	_, err = ops.SearchPosts(context.Background(), SearchOptions{Where: `hasTag(`})
	var compileErr *filter.CompilationError
	assert.ErrorAs(t, err, &compileErr)

	assert.Empty(t, f.seen(), "an invalid filter should fail before searching")

	bare := NewOperations(newTestClient(t, f), zerolog.Nop())
	_, err = bare.SearchPosts(context.Background(), SearchOptions{Where: "unsafe"})
	assert.ErrorIs(t, err, ErrNoFilter)
}

func TestEditTags(t *testing.T) {
	f := safetyFixture()
	ops, _ := newTestOperations(t, f, "")
	ctx := context.Background()

	posts, err := ops.SearchPosts(ctx, SearchOptions{Query: "sun"})
	require.NoError(t, err)
	posts = posts[:3]

	result, err := ops.EditTags(ctx, posts, TagEdit{Add: []string{"moon"}, Remove: []string{"SUN"}}, BatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, []int{1, 2, 3}, result.Successful)
	assert.Empty(t, result.Failed)

	// post 3 already had exactly "moon"
	assert.Equal(t, 1, f.count("PUT", postPath(1)))
	assert.Equal(t, 1, f.count("PUT", postPath(2)))
	assert.Equal(t, 0, f.count("PUT", postPath(3)))

	for _, body := range f.putBodies() {
		assert.Equal(t, []any{"moon"}, body["tags"])
		assert.Equal(t, float64(1), body["version"])
	}

	names, err := posts[0].TagNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"moon"}, names)
	assert.False(t, posts[0].IsDirty())
}

func TestEditTagsRequiresChanges(t *testing.T) {
	ops, _ := newTestOperations(t, safetyFixture(), "")

	_, err := ops.EditTags(context.Background(), nil, TagEdit{}, BatchOptions{})
	assert.ErrorIs(t, err, szurubooru.ErrInvalidValue)
}

func TestBatchDryRunAndConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    BatchOptions
		applied bool
		prompt  bool
	}{
		{name: "dry run", opts: BatchOptions{DryRun: true}},
		{name: "dry run skips prompt", input: "y\n", opts: BatchOptions{DryRun: true, Confirm: true}},
		{name: "declined", input: "n\n", opts: BatchOptions{Confirm: true}, prompt: true},
		{name: "no answer", opts: BatchOptions{Confirm: true}, prompt: true},
		{name: "accepted", input: "Y\n", opts: BatchOptions{Confirm: true}, prompt: true, applied: true},
		{name: "unconfirmed", opts: BatchOptions{}, applied: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := safetyFixture()
			ops, out := newTestOperations(t, f, tt.input)
			ctx := context.Background()

			posts, err := ops.SearchPosts(ctx, SearchOptions{Where: "unsafe"})
			require.NoError(t, err)

			result, err := ops.SetSafety(ctx, posts, szurubooru.SafetySafe, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, 2, result.Requested)

			if tt.applied {
				assert.Equal(t, []int{2, 4}, result.Successful)
				assert.Len(t, f.putBodies(), 2)
			} else {
				assert.Empty(t, result.Successful)
				assert.Empty(t, f.putBodies())
			}

			if tt.prompt {
				assert.Contains(t, out.String(), "About to set safety to safe on 2 post(s)")
			} else {
				assert.NotContains(t, out.String(), "Continue?")
			}
			if tt.opts.DryRun || tt.opts.Confirm {
				assert.Contains(t, out.String(), "Posts (2):")
			}
		})
	}
}

func TestSetSafetyRejectsUnknownRating(t *testing.T) {
	ops, _ := newTestOperations(t, safetyFixture(), "")

	_, err := ops.SetSafety(context.Background(), nil, szurubooru.Safety("nsfw"), BatchOptions{})
	assert.ErrorIs(t, err, szurubooru.ErrInvalidValue)
}

func TestDeletePosts(t *testing.T) {
	f := safetyFixture()
	ops, out := newTestOperations(t, f, "y\n")
	ctx := context.Background()

	posts, err := ops.SearchPosts(ctx, SearchOptions{})
	require.NoError(t, err)

	// post 5 disappears before the batch runs, post 3 cannot be deleted
	f.mu.Lock()
	delete(f.posts, 5)
	f.failing[3] = true
	f.mu.Unlock()

	result, err := ops.DeletePosts(ctx, posts, BatchOptions{Confirm: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post 3")

	assert.Equal(t, 5, result.Requested)
	assert.Equal(t, []int{1, 2, 4, 5}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 3, result.Failed[0].ID)

	var apiErr *szurubooru.APIError
	assert.ErrorAs(t, result.Failed[0], &apiErr)

	assert.Contains(t, out.String(), "Posts to be deleted (5):")
	assert.False(t, f.has(1))
	assert.True(t, f.has(3))

	ops.PrintBatchResult("delete", result)
	assert.Contains(t, out.String(), "delete: 4 succeeded, 1 failed (of 5)")
}

func TestEmptyBatch(t *testing.T) {
	ops, out := newTestOperations(t, safetyFixture(), "")

	result, err := ops.DeletePosts(context.Background(), nil, BatchOptions{Confirm: true})
	require.NoError(t, err)
	assert.Zero(t, result.Requested)
	assert.Empty(t, out.String())
}

func TestApplyTagEdit(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		edit    TagEdit
		want    []string
	}{
		{"add", []string{"sun"}, TagEdit{Add: []string{"moon"}}, []string{"sun", "moon"}},
		{"add existing", []string{"sun"}, TagEdit{Add: []string{"Sun"}}, []string{"sun"}},
		{"remove case-insensitive", []string{"sun", "moon"}, TagEdit{Remove: []string{"MOON"}}, []string{"sun"}},
		{"replace", []string{"sun", "moon"}, TagEdit{Add: []string{"star"}, Remove: []string{"sun"}}, []string{"moon", "star"}},
		{"blank names ignored", nil, TagEdit{Add: []string{" ", "sky "}}, []string{"sky"}},
		{"remove everything", []string{"sun"}, TagEdit{Remove: []string{"sun"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, applyTagEdit(tt.current, tt.edit))
		})
	}
}

func TestSearchTagsAndPoolsPassFilter(t *testing.T) {
	ops, _ := newTestOperations(t, safetyFixture(), "")

	// the fake only knows posts; a tag search surfaces the API error
	_, err := ops.SearchTags(context.Background(), SearchOptions{Query: "sun"})
	var searchErr *szurubooru.APIError
	assert.ErrorAs(t, err, &searchErr)

	_, err = ops.SearchPools(context.Background(), SearchOptions{Where: "@missing"})
	assert.ErrorIs(t, err, filter.ErrUnknownFilter)
}
