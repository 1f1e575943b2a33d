package szurubooru

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"net/http"
	"reflect"
	"slices"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// Resource mirrors one server object. committed holds the last JSON the
// server returned, pending holds local edits that have not been pushed.
// A field present in pending is always the caller's intended next value.
type Resource struct {
	client      *Client
	kind        *kind
	committed   map[string]any
	pending     map[string]any
	invalidated bool
}

func newResource(c *Client, k *kind, seed map[string]any) *Resource {
	if seed == nil {
		seed = map[string]any{}
	}
	return &Resource{
		client:    c,
		kind:      k,
		committed: seed,
		pending:   map[string]any{},
	}
}

// newDraft builds a resource that only exists locally until it is pushed.
func newDraft(c *Client, k *kind, fields map[string]any) (*Resource, error) {
	r := newResource(c, k, nil)
	for field, value := range fields {
		v, err := normalize(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		r.pending[field] = v
	}
	return r, nil
}

// Kind returns the resource kind, e.g. "post" or "tag-category".
func (r *Resource) Kind() string {
	return r.kind.name
}

// Get returns a field, preferring pending edits over committed state. A
// field missing from both triggers one pull before giving up.
func (r *Resource) Get(ctx context.Context, field string) (any, error) {
	return r.get(ctx, field, true)
}

func (r *Resource) get(ctx context.Context, field string, refresh bool) (any, error) {
	raw, err := r.raw(ctx, field, refresh)
	if err != nil {
		return nil, err
	}
	return r.kind.fromWire(r.client, field, raw), nil
}

func (r *Resource) raw(ctx context.Context, field string, refresh bool) (any, error) {
	if r.invalidated {
		return nil, ErrInvalidated
	}
	if v, ok := r.pending[field]; ok {
		return v, nil
	}
	if v, ok := r.committed[field]; ok {
		return v, nil
	}
	if refresh {
		if err := r.Pull(ctx); err != nil {
			return nil, err
		}
		return r.raw(ctx, field, false)
	}
	return nil, fmt.Errorf("%w: %s has no field %q", ErrFieldNotPresent, r.kind.name, field)
}

// Set records a local edit. Only fields the server has reported can be set;
// an unknown field triggers one pull first.
func (r *Resource) Set(ctx context.Context, field string, value any) error {
	return r.set(ctx, field, value, true)
}

func (r *Resource) set(ctx context.Context, field string, value any, refresh bool) error {
	if r.invalidated {
		return ErrInvalidated
	}

	current, ok := r.committed[field]
	if !ok {
		current, ok = r.pending[field]
	}
	if !ok {
		if refresh {
			if err := r.Pull(ctx); err != nil {
				return err
			}
			return r.set(ctx, field, value, false)
		}
		return fmt.Errorf("%w: %s has no field %q", ErrFieldNotPresent, r.kind.name, field)
	}

	if _, wantList := current.([]any); wantList && !isList(value) {
		return fmt.Errorf("%w: %s %q expects a list, got %T", ErrInvalidValue, r.kind.name, field, value)
	}

	v, err := r.kind.toWire(ctx, field, value)
	if err != nil {
		return err
	}
	r.pending[field] = v
	return nil
}

// Pull fetches the server state. It fails with a *SyncError if a pending
// edit collides with a server-side change to the same field.
func (r *Resource) Pull(ctx context.Context) error {
	if r.invalidated {
		return ErrInvalidated
	}
	parts, err := r.kind.instance(r)
	if err != nil {
		return err
	}
	data, err := r.client.Call(ctx, http.MethodGet, parts, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", r.kind.name, err)
	}
	return r.absorb(data, false)
}

// Push sends pending edits. Resources with a known version are updated,
// the rest are created.
func (r *Resource) Push(ctx context.Context) error {
	if r.invalidated {
		return ErrInvalidated
	}

	body := r.kind.serialize(r.pending)
	method := http.MethodPost
	parts := r.kind.create
	if version, ok := r.version(); ok {
		body["version"] = version
		method = http.MethodPut
		var err error
		if parts, err = r.kind.instance(r); err != nil {
			return err
		}
	}

	data, err := r.client.Call(ctx, method, parts, nil, body)
	if err != nil {
		return fmt.Errorf("failed to push %s: %w", r.kind.name, err)
	}

	r.client.logger.Debug().
		Str("kind", r.kind.name).
		Str("method", method).
		Msg("Pushed resource")

	return r.absorb(data, true)
}

// Delete removes the resource on the server and invalidates the handle.
func (r *Resource) Delete(ctx context.Context) error {
	if r.invalidated {
		return ErrInvalidated
	}
	version, ok := r.version()
	if !ok {
		return &SyncError{Field: "version", Reason: "cannot delete a resource the server has not reported"}
	}
	parts, err := r.kind.deleteTarget(r)
	if err != nil {
		return err
	}
	if _, err := r.client.Call(ctx, http.MethodDelete, parts, nil, map[string]any{"version": version}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.kind.name, err)
	}
	r.invalidate()
	return nil
}

// absorb replaces committed state with data. Unless forced, a pending field
// whose incoming value matches neither the committed nor the pending value
// is a conflict. Pending edits the server already reflects are dropped and
// edits to fields the server left unchanged survive.
func (r *Resource) absorb(data map[string]any, force bool) error {
	if data == nil {
		data = map[string]any{}
	}

	pending := map[string]any{}
	if !force {
		for _, field := range slices.Sorted(maps.Keys(r.pending)) {
			want := r.pending[field]
			incoming, ok := data[field]
			if !ok {
				pending[field] = want
				continue
			}
			if jsonEqual(incoming, want) {
				continue
			}
			previous, had := r.committed[field]
			if had && jsonEqual(want, previous) {
				// the edit was a no-op, the server value wins
				continue
			}
			if had && jsonEqual(incoming, previous) {
				pending[field] = want
				continue
			}
			return &SyncError{Field: field, Reason: "changed on the server since it was edited locally"}
		}
	}

	r.committed = data
	r.pending = pending
	return nil
}

func (r *Resource) invalidate() {
	r.committed = map[string]any{}
	r.pending = map[string]any{}
	r.invalidated = true
}

func (r *Resource) version() (any, bool) {
	v, ok := r.committed["version"]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Version returns the optimistic-concurrency version the server last reported.
func (r *Resource) Version() (int, bool) {
	v, ok := r.version()
	if !ok {
		return 0, false
	}
	return intValue(v)
}

// IsDirty reports whether there are unpushed edits.
func (r *Resource) IsDirty() bool {
	return len(r.pending) > 0
}

// IsSynchronized reports whether the resource can be deleted or merged:
// it has a server version and no pending edits.
func (r *Resource) IsSynchronized() bool {
	_, hasVersion := r.version()
	return !r.invalidated && hasVersion && len(r.pending) == 0
}

// IsInvalidated reports whether the resource was deleted or merged away.
func (r *Resource) IsInvalidated() bool {
	return r.invalidated
}

// Committed returns a copy of the last server state.
func (r *Resource) Committed() map[string]any {
	return cloneJSON(r.committed).(map[string]any)
}

// Pending returns a copy of the unpushed edits.
func (r *Resource) Pending() map[string]any {
	return cloneJSON(r.pending).(map[string]any)
}

// Snapshot returns committed state overlaid with pending edits.
func (r *Resource) Snapshot() map[string]any {
	out := r.Committed()
	for k, v := range r.pending {
		out[k] = cloneJSON(v)
	}
	return out
}

// requireSynchronized returns the version of a resource about to take part
// in a merge. It never issues a request.
func (r *Resource) requireSynchronized(role string) (any, error) {
	if r.invalidated {
		return nil, fmt.Errorf("%s %s: %w", role, r.kind.name, ErrInvalidated)
	}
	if len(r.pending) > 0 {
		return nil, &SyncError{Reason: fmt.Sprintf("%s %s has pending edits", role, r.kind.name)}
	}
	version, ok := r.version()
	if !ok {
		return nil, &SyncError{Field: "version", Reason: fmt.Sprintf("%s %s has no server version", role, r.kind.name)}
	}
	return version, nil
}

// identity reads an identifying field from committed state, falling back to
// pending for resources that have not been pushed yet.
func (r *Resource) identity(field string) (any, bool) {
	if v, ok := r.committed[field]; ok && v != nil {
		return v, true
	}
	v, ok := r.pending[field]
	return v, ok && v != nil
}

// getAs reads a field and decodes it into T.
func getAs[T any](ctx context.Context, r *Resource, field string) (T, error) {
	var out T
	v, err := r.Get(ctx, field)
	if err != nil || v == nil {
		return out, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	if err := decodeValue(v, &out); err != nil {
		return out, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, r.kind.name, field, err)
	}
	return out, nil
}

// getList reads a list field whose elements the getter transforms into T.
func getList[T any](ctx context.Context, r *Resource, field string) ([]T, error) {
	v, err := r.Get(ctx, field)
	if err != nil || v == nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q is not a list", ErrInvalidValue, r.kind.name, field)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		t, ok := item.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q contains %T", ErrInvalidValue, r.kind.name, field, item)
		}
		out = append(out, t)
	}
	return out, nil
}

func decodeValue(input, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       parseTimeHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func parseTimeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	return dateparse.ParseAny(data.(string))
}

// normalize converts v to the shapes encoding/json produces, so that pending
// values compare equal to decoded server values.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneJSON(item)
		}
		return out
	default:
		return v
	}
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), n == math.Trunc(n)
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
