package szurubooru

import (
	"context"
	"fmt"
	"time"
)

// Pool is an ordered, named collection of posts.
type Pool struct {
	*Resource
}

func newPool(c *Client, seed map[string]any) *Pool {
	return &Pool{Resource: newResource(c, poolKind, seed)}
}

func (p *Pool) ID(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "id")
}

func (p *Pool) Names(ctx context.Context) ([]string, error) {
	return getAs[[]string](ctx, p.Resource, "names")
}

func (p *Pool) SetNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: a pool needs at least one name", ErrInvalidValue)
	}
	return p.Set(ctx, "names", names)
}

func (p *Pool) PrimaryName(ctx context.Context) (string, error) {
	names, err := p.Names(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: pool has no names", ErrFieldNotPresent)
	}
	return names[0], nil
}

func (p *Pool) Category(ctx context.Context) (string, error) {
	return getAs[string](ctx, p.Resource, "category")
}

func (p *Pool) SetCategory(ctx context.Context, category string) error {
	return p.Set(ctx, "category", category)
}

func (p *Pool) Description(ctx context.Context) (string, error) {
	return getAs[string](ctx, p.Resource, "description")
}

func (p *Pool) SetDescription(ctx context.Context, description string) error {
	return p.Set(ctx, "description", description)
}

// Posts returns the pool's posts in pool order.
func (p *Pool) Posts(ctx context.Context) ([]*Post, error) {
	return getList[*Post](ctx, p.Resource, "posts")
}

func (p *Pool) SetPosts(ctx context.Context, posts []*Post) error {
	if posts == nil {
		posts = []*Post{}
	}
	return p.Set(ctx, "posts", posts)
}

// SetPostIDs replaces the pool's posts by id.
func (p *Pool) SetPostIDs(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return p.Set(ctx, "posts", ids)
}

func (p *Pool) PostCount(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "postCount")
}

func (p *Pool) CreationTime(ctx context.Context) (time.Time, error) {
	return getAs[time.Time](ctx, p.Resource, "creationTime")
}

// MergeFrom merges source into p. With addAsAlias the names of source are
// kept as aliases of p.
func (p *Pool) MergeFrom(ctx context.Context, source *Pool, addAsAlias bool) error {
	var src *Resource
	if source != nil {
		src = source.Resource
	}
	return mergeAliases(ctx, p.Resource, src, "pool-merge", idKey, addAsAlias)
}
