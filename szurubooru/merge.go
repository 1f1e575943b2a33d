package szurubooru

import (
	"context"
	"fmt"
	"net/http"
	"slices"
)

// mergeKey extracts the value the merge endpoints use to name a resource.
type mergeKey func(r *Resource) any

func idKey(r *Resource) any {
	v, _ := r.identity("id")
	return v
}

func primaryNameKey(r *Resource) any {
	v, _ := r.identity("names")
	names, _ := v.([]any)
	if len(names) == 0 {
		return nil
	}
	return names[0]
}

// merge folds source into target through the kind's merge endpoint. Both
// sides are checked before any request is sent. On success source is
// invalidated and target adopts the merged state.
func merge(ctx context.Context, target, source *Resource, endpoint string, key mergeKey, extra map[string]any) error {
	if source == nil {
		return fmt.Errorf("%w: nil merge source", ErrInvalidValue)
	}
	sourceVersion, err := source.requireSynchronized("source")
	if err != nil {
		return err
	}
	targetVersion, err := target.requireSynchronized("target")
	if err != nil {
		return err
	}

	body := map[string]any{
		"remove":         key(source),
		"removeVersion":  sourceVersion,
		"mergeTo":        key(target),
		"mergeToVersion": targetVersion,
	}
	for k, v := range extra {
		body[k] = v
	}

	data, err := target.client.Call(ctx, http.MethodPost, []string{endpoint}, nil, body)
	if err != nil {
		return fmt.Errorf("failed to merge %s: %w", target.kind.name, err)
	}

	target.client.logger.Info().
		Str("kind", target.kind.name).
		Interface("remove", body["remove"]).
		Interface("merge_to", body["mergeTo"]).
		Msg("Merged resources")

	source.invalidate()
	return target.absorb(data, true)
}

// mergeAliases merges source into target and, when addAsAlias is set,
// pushes the union of both name lists onto target. Once the merge itself
// succeeded, alias failures wrap ErrAliasesNotSaved and target holds the
// merged state with the aliases still pending.
func mergeAliases(ctx context.Context, target, source *Resource, endpoint string, key mergeKey, addAsAlias bool) error {
	var aliases []any
	if source != nil {
		v, _ := source.identity("names")
		aliases, _ = cloneJSON(v).([]any)
	}

	if err := merge(ctx, target, source, endpoint, key, nil); err != nil {
		return err
	}
	if !addAsAlias {
		return nil
	}

	v, _ := target.identity("names")
	names, _ := cloneJSON(v).([]any)
	for _, alias := range aliases {
		if !slices.Contains(names, alias) {
			names = append(names, alias)
		}
	}
	if err := target.set(ctx, "names", names, false); err != nil {
		return fmt.Errorf("%w: %w", ErrAliasesNotSaved, err)
	}
	if err := target.Push(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrAliasesNotSaved, err)
	}
	return nil
}
