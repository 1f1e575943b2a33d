package szurubooru

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

// Post is a single uploaded file with its metadata.
type Post struct {
	*Resource
}

func newPost(c *Client, seed map[string]any) *Post {
	return &Post{Resource: newResource(c, postKind, seed)}
}

// ID returns the numeric post id.
func (p *Post) ID(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "id")
}

func (p *Post) Safety(ctx context.Context) (Safety, error) {
	s, err := getAs[string](ctx, p.Resource, "safety")
	return Safety(s), err
}

func (p *Post) SetSafety(ctx context.Context, safety Safety) error {
	if _, err := ParseSafety(string(safety)); err != nil {
		return err
	}
	return p.Set(ctx, "safety", string(safety))
}

// Sources returns the source URLs, stored server-side as one
// newline-separated string.
func (p *Post) Sources(ctx context.Context) ([]string, error) {
	s, err := getAs[string](ctx, p.Resource, "source")
	if err != nil || s == "" {
		return nil, err
	}
	return strings.Split(s, "\n"), nil
}

func (p *Post) SetSources(ctx context.Context, sources []string) error {
	return p.Set(ctx, "source", strings.Join(sources, "\n"))
}

func (p *Post) Tags(ctx context.Context) ([]*Tag, error) {
	return getList[*Tag](ctx, p.Resource, "tags")
}

func (p *Post) SetTags(ctx context.Context, tags []*Tag) error {
	return p.Set(ctx, "tags", tags)
}

// SetTagNames replaces the tags by name. Unknown names are created by the
// server on push.
func (p *Post) SetTagNames(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	return p.Set(ctx, "tags", names)
}

// TagNames returns the primary name of every tag on the post.
func (p *Post) TagNames(ctx context.Context) ([]string, error) {
	tags, err := p.Tags(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		name, err := tag.PrimaryName(ctx)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (p *Post) Relations(ctx context.Context) ([]*Post, error) {
	return getList[*Post](ctx, p.Resource, "relations")
}

func (p *Post) SetRelations(ctx context.Context, posts []*Post) error {
	if posts == nil {
		posts = []*Post{}
	}
	return p.Set(ctx, "relations", posts)
}

// SetRelationIDs replaces the related posts by id.
func (p *Post) SetRelationIDs(ctx context.Context, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return p.Set(ctx, "relations", ids)
}

func (p *Post) Notes(ctx context.Context) ([]Note, error) {
	return getAs[[]Note](ctx, p.Resource, "notes")
}

func (p *Post) SetNotes(ctx context.Context, notes []Note) error {
	if notes == nil {
		notes = []Note{}
	}
	return p.Set(ctx, "notes", notes)
}

func (p *Post) Flags(ctx context.Context) ([]string, error) {
	return getAs[[]string](ctx, p.Resource, "flags")
}

func (p *Post) Loop(ctx context.Context) (bool, error) {
	return p.hasFlag(ctx, flagLoop)
}

func (p *Post) SetLoop(ctx context.Context, loop bool) error {
	return p.setFlag(ctx, flagLoop, loop)
}

func (p *Post) Sound(ctx context.Context) (bool, error) {
	return p.hasFlag(ctx, flagSound)
}

func (p *Post) SetSound(ctx context.Context, sound bool) error {
	return p.setFlag(ctx, flagSound, sound)
}

func (p *Post) hasFlag(ctx context.Context, flag string) (bool, error) {
	flags, err := p.Flags(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(flags, flag), nil
}

// setFlag reads flags with a refresh but writes them without one, the
// read already loaded the field.
func (p *Post) setFlag(ctx context.Context, flag string, on bool) error {
	flags, err := p.Flags(ctx)
	if err != nil {
		return err
	}
	flags = slices.DeleteFunc(flags, func(f string) bool { return f == flag })
	if on {
		flags = append(flags, flag)
	}
	if flags == nil {
		flags = []string{}
	}
	return p.set(ctx, "flags", flags, false)
}

// Type is the post type reported by the server: image, animation, video or flash.
func (p *Post) Type(ctx context.Context) (string, error) {
	return getAs[string](ctx, p.Resource, "type")
}

func (p *Post) MIME(ctx context.Context) (string, error) {
	return getAs[string](ctx, p.Resource, "mimeType")
}

func (p *Post) Checksum(ctx context.Context) (string, error) {
	return getAs[string](ctx, p.Resource, "checksum")
}

func (p *Post) Width(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "canvasWidth")
}

func (p *Post) Height(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "canvasHeight")
}

func (p *Post) Score(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "score")
}

func (p *Post) FavoriteCount(ctx context.Context) (int, error) {
	return getAs[int](ctx, p.Resource, "favoriteCount")
}

func (p *Post) CreationTime(ctx context.Context) (time.Time, error) {
	return getAs[time.Time](ctx, p.Resource, "creationTime")
}

func (p *Post) LastEditTime(ctx context.Context) (time.Time, error) {
	return getAs[time.Time](ctx, p.Resource, "lastEditTime")
}

// ContentURL returns the absolute URL of the post's file.
func (p *Post) ContentURL(ctx context.Context) (string, error) {
	return p.dataURL(ctx, "contentUrl")
}

// ThumbnailURL returns the absolute URL of the post's thumbnail.
func (p *Post) ThumbnailURL(ctx context.Context) (string, error) {
	return p.dataURL(ctx, "thumbnailUrl")
}

func (p *Post) dataURL(ctx context.Context, field string) (string, error) {
	rel, err := getAs[string](ctx, p.Resource, field)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fmt.Errorf("%w: post %q is empty", ErrFieldNotPresent, field)
	}
	return p.client.endpoint.DataURL(rel, true)
}

// SetContent replaces the post's file with previously uploaded content.
func (p *Post) SetContent(token FileToken) error {
	return p.setToken("contentToken", token)
}

// SetThumbnail replaces the post's custom thumbnail.
func (p *Post) SetThumbnail(token FileToken) error {
	return p.setToken("thumbnailToken", token)
}

func (p *Post) setToken(field string, token FileToken) error {
	if p.invalidated {
		return ErrInvalidated
	}
	if token.Token == "" {
		return fmt.Errorf("%w: empty file token", ErrInvalidValue)
	}
	p.pending[field] = token.Token
	return nil
}

// Around returns the posts before and after this one. Either may be nil.
func (p *Post) Around(ctx context.Context) (prev, next *Post, err error) {
	parts, err := p.kind.instance(p.Resource)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.client.Call(ctx, http.MethodGet, append(parts, "around"), nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get posts around post: %w", err)
	}

	load := func(key string) (*Post, error) {
		seed, ok := data[key].(map[string]any)
		if !ok {
			return nil, nil
		}
		post := newPost(p.client, seed)
		if err := post.Pull(ctx); err != nil {
			return nil, err
		}
		return post, nil
	}

	if prev, err = load("prev"); err != nil {
		return nil, nil, err
	}
	if next, err = load("next"); err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

// SetRating rates the post as the authenticated user. Scores are clamped
// to -1, 0 or 1.
func (p *Post) SetRating(ctx context.Context, score int) error {
	score = max(-1, min(1, score))
	parts, err := p.kind.instance(p.Resource)
	if err != nil {
		return err
	}
	if _, err := p.client.Call(ctx, http.MethodPost, append(parts, "score"), nil, map[string]any{"score": score}); err != nil {
		return fmt.Errorf("failed to rate post: %w", err)
	}
	return nil
}

// SetFavorite adds the post to, or removes it from, the user's favorites.
func (p *Post) SetFavorite(ctx context.Context, favorite bool) error {
	parts, err := p.kind.instance(p.Resource)
	if err != nil {
		return err
	}
	method := http.MethodDelete
	if favorite {
		method = http.MethodPost
	}
	if _, err := p.client.Call(ctx, method, append(parts, "favorite"), nil, nil); err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	return nil
}

// MergeFrom merges source into p. Both posts must be synchronized. With
// replaceContent the file of source replaces the file of p.
func (p *Post) MergeFrom(ctx context.Context, source *Post, replaceContent bool) error {
	var src *Resource
	if source != nil {
		src = source.Resource
	}
	return merge(ctx, p.Resource, src, "post-merge", idKey, map[string]any{
		"replaceContent": replaceContent,
	})
}
