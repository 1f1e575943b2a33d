package szurubooru

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
)

// kind is the capability table of one resource type: where it lives, how
// it is identified, which fields are fetched lazily and how nested values
// are converted on the way in and out.
type kind struct {
	name     string
	notFound string

	collection []string
	create     []string
	instance   func(r *Resource) ([]string, error)
	deletion   func(r *Resource) ([]string, error)

	lazyFields []string
	serialized []string

	// getters, setters and wire transforms apply per element for lists.
	getters map[string]func(c *Client, v any) any
	setters map[string]func(ctx context.Context, v any) (any, error)
	wire    map[string]func(v any) any
}

var (
	postKind         *kind
	tagKind          *kind
	tagCategoryKind  *kind
	poolCategoryKind *kind
	poolKind         *kind
)

func init() {
	postKind = &kind{
		name:       "post",
		notFound:   "PostNotFoundError",
		collection: []string{"posts"},
		create:     []string{"posts"},
		instance:   numericIdentity("post"),
		lazyFields: []string{"id", "safety", "type", "contentUrl", "flags", "tags", "relations"},
		serialized: []string{"tags", "safety", "source", "relations", "notes", "flags", "contentToken", "thumbnailToken"},
		getters: map[string]func(*Client, any) any{
			"tags":      asTag,
			"relations": asPost,
		},
		setters: map[string]func(context.Context, any) (any, error){
			"tags":      tagReference,
			"relations": postReference,
		},
		wire: map[string]func(any) any{
			"tags":      primaryName,
			"relations": referencedID,
		},
	}

	tagKind = &kind{
		name:       "tag",
		notFound:   "TagNotFoundError",
		collection: []string{"tags"},
		create:     []string{"tags"},
		instance:   primaryNameIdentity("tag"),
		lazyFields: []string{"names", "category", "usages"},
		serialized: []string{"names", "category", "description", "implications", "suggestions"},
		getters: map[string]func(*Client, any) any{
			"implications": asTag,
			"suggestions":  asTag,
		},
		setters: map[string]func(context.Context, any) (any, error){
			"implications": tagReference,
			"suggestions":  tagReference,
		},
		wire: map[string]func(any) any{
			"implications": primaryName,
			"suggestions":  primaryName,
		},
	}

	tagCategoryKind = &kind{
		name:       "tag-category",
		notFound:   "TagCategoryNotFoundError",
		collection: []string{"tag-categories"},
		create:     []string{"tag-categories"},
		instance:   nameIdentity("tag-category"),
		serialized: []string{"name", "color", "order"},
	}

	poolCategoryKind = &kind{
		name:       "pool-category",
		notFound:   "PoolCategoryNotFoundError",
		collection: []string{"pool-categories"},
		create:     []string{"pool-categories"},
		instance:   nameIdentity("pool-category"),
		serialized: []string{"name", "color"},
	}

	// The server creates pools under the singular /pool and deletes them by
	// primary name, unlike every other kind.
	poolKind = &kind{
		name:       "pool",
		notFound:   "PoolNotFoundError",
		collection: []string{"pools"},
		create:     []string{"pool"},
		instance:   numericIdentity("pool"),
		deletion:   primaryNameIdentity("pool"),
		lazyFields: []string{"id", "names", "category", "description", "postCount", "posts"},
		serialized: []string{"names", "category", "description", "posts"},
		getters: map[string]func(*Client, any) any{
			"posts": asPost,
		},
		setters: map[string]func(context.Context, any) (any, error){
			"posts": postReference,
		},
		wire: map[string]func(any) any{
			"posts": referencedID,
		},
	}
}

func (k *kind) deleteTarget(r *Resource) ([]string, error) {
	if k.deletion != nil {
		return k.deletion(r)
	}
	return k.instance(r)
}

func (k *kind) fromWire(c *Client, field string, raw any) any {
	v := cloneJSON(raw)
	getter, ok := k.getters[field]
	if !ok || v == nil {
		return v
	}
	if items, ok := v.([]any); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = getter(c, item)
		}
		return out
	}
	return getter(c, v)
}

func (k *kind) toWire(ctx context.Context, field string, value any) (any, error) {
	// a nil slice is an empty list, not null
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice && rv.IsNil() {
		value = []any{}
	}
	if setter, ok := k.setters[field]; ok && value != nil {
		if isList(value) {
			rv := reflect.ValueOf(value)
			items := make([]any, rv.Len())
			for i := range items {
				item, err := setter(ctx, rv.Index(i).Interface())
				if err != nil {
					return nil, fmt.Errorf("%s %q: %w", k.name, field, err)
				}
				items[i] = item
			}
			value = items
		} else {
			item, err := setter(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", k.name, field, err)
			}
			value = item
		}
	}

	v, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, k.name, field, err)
	}
	return v, nil
}

// serialize builds a request body from the whitelisted pending fields.
func (k *kind) serialize(pending map[string]any) map[string]any {
	body := make(map[string]any, len(k.serialized)+1)
	for _, field := range k.serialized {
		v, ok := pending[field]
		if !ok {
			continue
		}
		v = cloneJSON(v)
		if w, ok := k.wire[field]; ok && v != nil {
			if items, ok := v.([]any); ok {
				for i, item := range items {
					items[i] = w(item)
				}
			} else {
				v = w(v)
			}
		}
		body[field] = v
	}
	return body
}

func numericIdentity(path string) func(r *Resource) ([]string, error) {
	return func(r *Resource) ([]string, error) {
		v, ok := r.identity("id")
		if !ok {
			return nil, fmt.Errorf("%w: %s has no id yet", ErrFieldNotPresent, r.kind.name)
		}
		id, ok := intValue(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s id %v", ErrInvalidValue, r.kind.name, v)
		}
		return []string{path, strconv.Itoa(id)}, nil
	}
}

func primaryNameIdentity(path string) func(r *Resource) ([]string, error) {
	return func(r *Resource) ([]string, error) {
		v, _ := r.identity("names")
		names, _ := v.([]any)
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %s has no names", ErrFieldNotPresent, r.kind.name)
		}
		name, ok := names[0].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %s primary name %v", ErrInvalidValue, r.kind.name, names[0])
		}
		return []string{path, name}, nil
	}
}

func nameIdentity(path string) func(r *Resource) ([]string, error) {
	return func(r *Resource) ([]string, error) {
		v, _ := r.identity("name")
		name, ok := v.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %s has no name", ErrFieldNotPresent, r.kind.name)
		}
		return []string{path, name}, nil
	}
}

func asTag(c *Client, v any) any {
	if m, ok := v.(map[string]any); ok {
		return newTag(c, m)
	}
	return v
}

func asPost(c *Client, v any) any {
	if m, ok := v.(map[string]any); ok {
		return newPost(c, m)
	}
	return v
}

// tagReference turns a *Tag or a tag name into the micro-tag form posts and
// tags embed.
func tagReference(ctx context.Context, v any) (any, error) {
	switch t := v.(type) {
	case string:
		return map[string]any{"names": []any{t}}, nil
	case *Tag:
		names, err := t.Names(ctx)
		if err != nil {
			return nil, err
		}
		ref := map[string]any{"names": names}
		if category, err := t.raw(ctx, "category", false); err == nil {
			ref["category"] = category
		}
		return ref, nil
	default:
		return nil, fmt.Errorf("%w: expected *Tag or string, got %T", ErrInvalidValue, v)
	}
}

// postReference turns a *Post or a post id into the micro-post form.
func postReference(ctx context.Context, v any) (any, error) {
	switch p := v.(type) {
	case int:
		return map[string]any{"id": p}, nil
	case *Post:
		id, err := p.ID(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil
	default:
		return nil, fmt.Errorf("%w: expected *Post or int, got %T", ErrInvalidValue, v)
	}
}

func primaryName(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	names, _ := m["names"].([]any)
	if len(names) == 0 {
		return nil
	}
	return names[0]
}

func referencedID(v any) any {
	if m, ok := v.(map[string]any); ok {
		return m["id"]
	}
	return v
}
