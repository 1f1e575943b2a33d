package szurubooru

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Tag is a named label; the first of its names is the primary one.
type Tag struct {
	*Resource
}

func newTag(c *Client, seed map[string]any) *Tag {
	return &Tag{Resource: newResource(c, tagKind, seed)}
}

func (t *Tag) Names(ctx context.Context) ([]string, error) {
	return getAs[[]string](ctx, t.Resource, "names")
}

func (t *Tag) SetNames(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: a tag needs at least one name", ErrInvalidValue)
	}
	return t.Set(ctx, "names", names)
}

func (t *Tag) PrimaryName(ctx context.Context) (string, error) {
	names, err := t.Names(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: tag has no names", ErrFieldNotPresent)
	}
	return names[0], nil
}

// SetPrimaryName moves name to the front of the name list, adding it if
// the tag does not have it yet.
func (t *Tag) SetPrimaryName(ctx context.Context, name string) error {
	names, err := t.Names(ctx)
	if err != nil {
		return err
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	return t.SetNames(ctx, append([]string{name}, names...))
}

// Category returns the name of the tag's category.
func (t *Tag) Category(ctx context.Context) (string, error) {
	return getAs[string](ctx, t.Resource, "category")
}

func (t *Tag) SetCategory(ctx context.Context, category string) error {
	return t.Set(ctx, "category", category)
}

func (t *Tag) Description(ctx context.Context) (string, error) {
	return getAs[string](ctx, t.Resource, "description")
}

func (t *Tag) SetDescription(ctx context.Context, description string) error {
	return t.Set(ctx, "description", description)
}

func (t *Tag) Implications(ctx context.Context) ([]*Tag, error) {
	return getList[*Tag](ctx, t.Resource, "implications")
}

func (t *Tag) SetImplications(ctx context.Context, tags []*Tag) error {
	if tags == nil {
		tags = []*Tag{}
	}
	return t.Set(ctx, "implications", tags)
}

// SetImplicationNames replaces the implied tags by name.
func (t *Tag) SetImplicationNames(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return t.Set(ctx, "implications", names)
}

func (t *Tag) Suggestions(ctx context.Context) ([]*Tag, error) {
	return getList[*Tag](ctx, t.Resource, "suggestions")
}

func (t *Tag) SetSuggestions(ctx context.Context, tags []*Tag) error {
	if tags == nil {
		tags = []*Tag{}
	}
	return t.Set(ctx, "suggestions", tags)
}

// SetSuggestionNames replaces the suggested tags by name.
func (t *Tag) SetSuggestionNames(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return t.Set(ctx, "suggestions", names)
}

// Usages is the number of posts carrying the tag.
func (t *Tag) Usages(ctx context.Context) (int, error) {
	return getAs[int](ctx, t.Resource, "usages")
}

func (t *Tag) CreationTime(ctx context.Context) (time.Time, error) {
	return getAs[time.Time](ctx, t.Resource, "creationTime")
}

// Siblings lists tags that often appear on the same posts as t.
func (t *Tag) Siblings(ctx context.Context) ([]TagSibling, error) {
	name, err := t.PrimaryName(ctx)
	if err != nil {
		return nil, err
	}
	return t.client.ListTagSiblings(ctx, name)
}

// MergeFrom merges source into t. With addAsAlias the names of source are
// kept as aliases of t.
func (t *Tag) MergeFrom(ctx context.Context, source *Tag, addAsAlias bool) error {
	var src *Resource
	if source != nil {
		src = source.Resource
	}
	return mergeAliases(ctx, t.Resource, src, "tag-merge", primaryNameKey, addAsAlias)
}
