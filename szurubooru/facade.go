package szurubooru

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
)

const defaultCategoryName = "default"

// CreatePost creates a post from uploaded content.
func (c *Client) CreatePost(ctx context.Context, content FileToken, safety Safety) (*Post, error) {
	if _, err := ParseSafety(string(safety)); err != nil {
		return nil, err
	}
	if content.Token == "" {
		return nil, fmt.Errorf("%w: empty file token", ErrInvalidValue)
	}

	res, err := newDraft(c, postKind, map[string]any{
		"tags":         []string{},
		"safety":       string(safety),
		"contentToken": content.Token,
	})
	if err != nil {
		return nil, err
	}
	post := &Post{Resource: res}
	if err := post.Push(ctx); err != nil {
		return nil, err
	}

	id, _ := intValue(post.committed["id"])
	c.logger.Info().
		Str("file", content.Filename).
		Int("id", id).
		Msg("Created post")
	return post, nil
}

// GetPost fetches a post by id.
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	post := newPost(c, map[string]any{"id": id})
	if err := post.Pull(ctx); err != nil {
		return nil, err
	}
	return post, nil
}

// IterPosts lazily walks the posts matching query.
func (c *Client) IterPosts(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Post, error] {
	return search(ctx, c, postKind, newPost, query, c.searchOptions(opts))
}

// SearchPosts returns every post matching query.
func (c *Client) SearchPosts(ctx context.Context, query string, opts ...SearchOption) ([]*Post, error) {
	return collect(c.IterPosts(ctx, query, opts...))
}

// DeletePost deletes a post. Deleting a post that does not exist succeeds.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.deleteIdempotent(ctx, newPost(c, map[string]any{"id": id}).Resource)
}

// MergePosts merges post source into post target and returns target.
func (c *Client) MergePosts(ctx context.Context, source, target int, replaceContent bool) (*Post, error) {
	src, err := c.GetPost(ctx, source)
	if err != nil {
		return nil, err
	}
	dst, err := c.GetPost(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := dst.MergeFrom(ctx, src, replaceContent); err != nil {
		return nil, err
	}
	return dst, nil
}

// GetAroundPost returns the neighbours of a post. Either may be nil.
func (c *Client) GetAroundPost(ctx context.Context, id int) (prev, next *Post, err error) {
	return newPost(c, map[string]any{"id": id}).Around(ctx)
}

// GetFeaturedPost returns the featured post, or nil if none is featured.
func (c *Client) GetFeaturedPost(ctx context.Context) (*Post, error) {
	data, err := c.Call(ctx, http.MethodGet, []string{"featured-post"}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get featured post: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return newPost(c, data), nil
}

// SetFeaturedPost features the post with the given id.
func (c *Client) SetFeaturedPost(ctx context.Context, id int) (*Post, error) {
	data, err := c.Call(ctx, http.MethodPost, []string{"featured-post"}, nil, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to feature post: %w", err)
	}
	return newPost(c, data), nil
}

// SearchByImage finds posts whose content resembles the uploaded file. An
// exact match, if any, comes first with distance 0.
func (c *Client) SearchByImage(ctx context.Context, content FileToken, eager bool) ([]SearchResult, error) {
	var query url.Values
	if !eager {
		query = url.Values{"fields": {strings.Join(postKind.lazyFields, ",")}}
	}

	data, err := c.Call(ctx, http.MethodPost, []string{"posts", "reverse-search"}, query, map[string]any{
		"contentToken": content.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search by image: %w", err)
	}

	var results []SearchResult
	if exact, ok := data["exactPost"].(map[string]any); ok {
		results = append(results, SearchResult{Post: newPost(c, exact), Distance: 0, Exact: true})
	}

	var similar []struct {
		Distance float64        `json:"distance"`
		Post     map[string]any `json:"post"`
	}
	if err := decodeValue(data["similarPosts"], &similar); err != nil {
		return nil, fmt.Errorf("failed to parse similar posts: %w", err)
	}
	for _, s := range similar {
		if s.Distance == 0 || s.Post == nil {
			continue
		}
		results = append(results, SearchResult{Post: newPost(c, s.Post), Distance: s.Distance})
	}
	return results, nil
}

// CreateTag creates a tag in the default tag category.
func (c *Client) CreateTag(ctx context.Context, name string, aliases ...string) (*Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty tag name", ErrInvalidValue)
	}
	category, err := c.GetDefaultTagCategory(ctx)
	if err != nil {
		return nil, err
	}
	categoryName, err := category.Name(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newDraft(c, tagKind, map[string]any{
		"names":    append([]string{name}, aliases...),
		"category": categoryName,
	})
	if err != nil {
		return nil, err
	}
	tag := &Tag{Resource: res}
	if err := tag.Push(ctx); err != nil {
		return nil, err
	}

	c.logger.Info().Str("tag", name).Str("category", categoryName).Msg("Created tag")
	return tag, nil
}

// GetTag fetches a tag by any of its names.
func (c *Client) GetTag(ctx context.Context, name string) (*Tag, error) {
	tag := newTag(c, map[string]any{"names": []any{name}})
	if err := tag.Pull(ctx); err != nil {
		return nil, err
	}
	return tag, nil
}

// IterTags lazily walks the tags matching query.
func (c *Client) IterTags(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Tag, error] {
	return search(ctx, c, tagKind, newTag, query, c.searchOptions(opts))
}

// SearchTags returns every tag matching query.
func (c *Client) SearchTags(ctx context.Context, query string, opts ...SearchOption) ([]*Tag, error) {
	return collect(c.IterTags(ctx, query, opts...))
}

// DeleteTag deletes a tag. Deleting a tag that does not exist succeeds.
func (c *Client) DeleteTag(ctx context.Context, name string) error {
	return c.deleteIdempotent(ctx, newTag(c, map[string]any{"names": []any{name}}).Resource)
}

// MergeTags merges tag source into tag target and returns target. If only
// the alias update fails, target is returned along with an error wrapping
// ErrAliasesNotSaved.
func (c *Client) MergeTags(ctx context.Context, source, target string, addAsAlias bool) (*Tag, error) {
	src, err := c.GetTag(ctx, source)
	if err != nil {
		return nil, err
	}
	dst, err := c.GetTag(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := dst.MergeFrom(ctx, src, addAsAlias); err != nil {
		if errors.Is(err, ErrAliasesNotSaved) {
			return dst, err
		}
		return nil, err
	}
	return dst, nil
}

// ListTagSiblings lists tags that often appear together with name.
func (c *Client) ListTagSiblings(ctx context.Context, name string) ([]TagSibling, error) {
	data, err := c.Call(ctx, http.MethodGet, []string{"tag-siblings", name}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag siblings: %w", err)
	}

	var rows []struct {
		Tag         map[string]any `json:"tag"`
		Occurrences int            `json:"occurrences"`
	}
	if err := decodeValue(data["results"], &rows); err != nil {
		return nil, fmt.Errorf("failed to parse tag siblings: %w", err)
	}

	siblings := make([]TagSibling, 0, len(rows))
	for _, row := range rows {
		siblings = append(siblings, TagSibling{Tag: newTag(c, row.Tag), Occurrences: row.Occurrences})
	}
	return siblings, nil
}

// CreateTagCategory creates a tag category with the default color.
func (c *Client) CreateTagCategory(ctx context.Context, name string) (*TagCategory, error) {
	res, err := newDraft(c, tagCategoryKind, map[string]any{
		"name":  name,
		"color": defaultCategoryName,
		"order": 1,
	})
	if err != nil {
		return nil, err
	}
	tc := &TagCategory{category{Resource: res}}
	if err := tc.Push(ctx); err != nil {
		return nil, err
	}
	c.logger.Info().Str("tag_category", name).Msg("Created tag category")
	return tc, nil
}

func (c *Client) GetTagCategory(ctx context.Context, name string) (*TagCategory, error) {
	tc := newTagCategory(c, map[string]any{"name": name})
	if err := tc.Pull(ctx); err != nil {
		return nil, err
	}
	return tc, nil
}

func (c *Client) ListTagCategories(ctx context.Context) ([]*TagCategory, error) {
	return searchUnpaged(ctx, c, tagCategoryKind, newTagCategory)
}

// GetDefaultTagCategory returns the category flagged as default, falling
// back to a handle named "default".
func (c *Client) GetDefaultTagCategory(ctx context.Context) (*TagCategory, error) {
	categories, err := c.ListTagCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, tc := range categories {
		if isDefault, _ := tc.committed["default"].(bool); isDefault {
			return tc, nil
		}
	}
	return newTagCategory(c, map[string]any{"name": defaultCategoryName}), nil
}

// SetDefaultTagCategory makes name the default tag category.
func (c *Client) SetDefaultTagCategory(ctx context.Context, name string) (*TagCategory, error) {
	tc := newTagCategory(c, map[string]any{"name": name})
	if err := tc.SetDefault(ctx); err != nil {
		return nil, err
	}
	return tc, nil
}

// DeleteTagCategory deletes a tag category. A missing category is not an error.
func (c *Client) DeleteTagCategory(ctx context.Context, name string) error {
	return c.deleteIdempotent(ctx, newTagCategory(c, map[string]any{"name": name}).Resource)
}

// CreatePoolCategory creates a pool category with the default color.
func (c *Client) CreatePoolCategory(ctx context.Context, name string) (*PoolCategory, error) {
	res, err := newDraft(c, poolCategoryKind, map[string]any{
		"name":  name,
		"color": defaultCategoryName,
	})
	if err != nil {
		return nil, err
	}
	pc := &PoolCategory{category{Resource: res}}
	if err := pc.Push(ctx); err != nil {
		return nil, err
	}
	c.logger.Info().Str("pool_category", name).Msg("Created pool category")
	return pc, nil
}

func (c *Client) GetPoolCategory(ctx context.Context, name string) (*PoolCategory, error) {
	pc := newPoolCategory(c, map[string]any{"name": name})
	if err := pc.Pull(ctx); err != nil {
		return nil, err
	}
	return pc, nil
}

func (c *Client) ListPoolCategories(ctx context.Context) ([]*PoolCategory, error) {
	return searchUnpaged(ctx, c, poolCategoryKind, newPoolCategory)
}

// GetDefaultPoolCategory returns the category flagged as default, falling
// back to a handle named "default".
func (c *Client) GetDefaultPoolCategory(ctx context.Context) (*PoolCategory, error) {
	categories, err := c.ListPoolCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, pc := range categories {
		if isDefault, _ := pc.committed["default"].(bool); isDefault {
			return pc, nil
		}
	}
	return newPoolCategory(c, map[string]any{"name": defaultCategoryName}), nil
}

func (c *Client) SetDefaultPoolCategory(ctx context.Context, name string) (*PoolCategory, error) {
	pc := newPoolCategory(c, map[string]any{"name": name})
	if err := pc.SetDefault(ctx); err != nil {
		return nil, err
	}
	return pc, nil
}

// DeletePoolCategory deletes a pool category. A missing category is not an error.
func (c *Client) DeletePoolCategory(ctx context.Context, name string) error {
	return c.deleteIdempotent(ctx, newPoolCategory(c, map[string]any{"name": name}).Resource)
}

// CreatePool creates an empty pool in the default pool category.
func (c *Client) CreatePool(ctx context.Context, name string) (*Pool, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty pool name", ErrInvalidValue)
	}
	category, err := c.GetDefaultPoolCategory(ctx)
	if err != nil {
		return nil, err
	}
	categoryName, err := category.Name(ctx)
	if err != nil {
		return nil, err
	}

	res, err := newDraft(c, poolKind, map[string]any{
		"names":    []string{name},
		"category": categoryName,
	})
	if err != nil {
		return nil, err
	}
	pool := &Pool{Resource: res}
	if err := pool.Push(ctx); err != nil {
		return nil, err
	}
	c.logger.Info().Str("pool", name).Str("category", categoryName).Msg("Created pool")
	return pool, nil
}

func (c *Client) GetPool(ctx context.Context, id int) (*Pool, error) {
	pool := newPool(c, map[string]any{"id": id})
	if err := pool.Pull(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

// IterPools lazily walks the pools matching query.
func (c *Client) IterPools(ctx context.Context, query string, opts ...SearchOption) iter.Seq2[*Pool, error] {
	return search(ctx, c, poolKind, newPool, query, c.searchOptions(opts))
}

// SearchPools returns every pool matching query.
func (c *Client) SearchPools(ctx context.Context, query string, opts ...SearchOption) ([]*Pool, error) {
	return collect(c.IterPools(ctx, query, opts...))
}

// DeletePool deletes a pool. Deleting a pool that does not exist succeeds.
func (c *Client) DeletePool(ctx context.Context, id int) error {
	return c.deleteIdempotent(ctx, newPool(c, map[string]any{"id": id}).Resource)
}

// MergePools merges pool source into pool target and returns target, with
// the same partial-failure contract as MergeTags.
func (c *Client) MergePools(ctx context.Context, source, target int, addAsAlias bool) (*Pool, error) {
	src, err := c.GetPool(ctx, source)
	if err != nil {
		return nil, err
	}
	dst, err := c.GetPool(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := dst.MergeFrom(ctx, src, addAsAlias); err != nil {
		if errors.Is(err, ErrAliasesNotSaved) {
			return dst, err
		}
		return nil, err
	}
	return dst, nil
}

// deleteIdempotent loads the current version of r and deletes it. The
// kind's not-found error counts as success, anything else propagates.
func (c *Client) deleteIdempotent(ctx context.Context, r *Resource) error {
	err := r.Pull(ctx)
	if err == nil {
		err = r.Delete(ctx)
	}
	if err != nil {
		if IsAPIError(err, r.kind.notFound) {
			c.logger.Debug().Str("kind", r.kind.name).Msg("Resource already deleted")
			return nil
		}
		return err
	}
	c.logger.Info().Str("kind", r.kind.name).Msg("Deleted resource")
	return nil
}
