package szurubooru

import (
	"context"
	"fmt"
	"net/http"
)

// category holds what tag and pool categories share.
type category struct {
	*Resource
}

func (c category) Name(ctx context.Context) (string, error) {
	return getAs[string](ctx, c.Resource, "name")
}

func (c category) SetName(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty category name", ErrInvalidValue)
	}
	return c.Set(ctx, "name", name)
}

// Color is a CSS color or one of the server's named palette entries.
func (c category) Color(ctx context.Context) (string, error) {
	return getAs[string](ctx, c.Resource, "color")
}

func (c category) SetColor(ctx context.Context, color string) error {
	return c.Set(ctx, "color", color)
}

// Usages is the number of tags or pools in the category.
func (c category) Usages(ctx context.Context) (int, error) {
	return getAs[int](ctx, c.Resource, "usages")
}

// IsDefault reports whether new tags or pools land in this category.
func (c category) IsDefault(ctx context.Context) (bool, error) {
	return getAs[bool](ctx, c.Resource, "default")
}

// SetDefault makes this the default category on the server.
func (c category) SetDefault(ctx context.Context) error {
	parts, err := c.kind.instance(c.Resource)
	if err != nil {
		return err
	}
	data, err := c.client.Call(ctx, http.MethodPut, append(parts, "default"), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to set default %s: %w", c.kind.name, err)
	}
	return c.absorb(data, true)
}

// TagCategory groups tags and controls their color.
type TagCategory struct {
	category
}

func newTagCategory(c *Client, seed map[string]any) *TagCategory {
	return &TagCategory{category{Resource: newResource(c, tagCategoryKind, seed)}}
}

// Order is the display position of the category.
func (tc *TagCategory) Order(ctx context.Context) (int, error) {
	return getAs[int](ctx, tc.Resource, "order")
}

func (tc *TagCategory) SetOrder(ctx context.Context, order int) error {
	return tc.Set(ctx, "order", order)
}

// PoolCategory groups pools.
type PoolCategory struct {
	category
}

func newPoolCategory(c *Client, seed map[string]any) *PoolCategory {
	return &PoolCategory{category{Resource: newResource(c, poolCategoryKind, seed)}}
}
