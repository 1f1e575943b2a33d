package booru

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/s0up4200/szuru/szurubooru"
)

// PostSummary is the printable view of a post. It is built from the
// post's snapshot and never triggers a request.
type PostSummary struct {
	ID            int
	Safety        string
	Type          string
	MIME          string
	Tags          []string
	Flags         []string
	Score         int
	FavoriteCount int
	Width         int
	Height        int
	Source        string
	Created       time.Time
	Dirty         bool
}

// TagSummary is the printable view of a tag
type TagSummary struct {
	Names       []string
	Category    string
	Usages      int
	Description string
}

// PoolSummary is the printable view of a pool
type PoolSummary struct {
	ID        int
	Names     []string
	Category  string
	PostCount int
}

// SummarizePost builds a PostSummary from the post's current snapshot
func SummarizePost(p *szurubooru.Post) PostSummary {
	snap := p.Snapshot()
	return PostSummary{
		ID:            intField(snap, "id"),
		Safety:        stringField(snap, "safety"),
		Type:          stringField(snap, "type"),
		MIME:          stringField(snap, "mimeType"),
		Tags:          tagNames(snap["tags"]),
		Flags:         stringList(snap["flags"]),
		Score:         intField(snap, "score"),
		FavoriteCount: intField(snap, "favoriteCount"),
		Width:         intField(snap, "canvasWidth"),
		Height:        intField(snap, "canvasHeight"),
		Source:        stringField(snap, "source"),
		Created:       timeField(snap, "creationTime"),
		Dirty:         p.IsDirty(),
	}
}

// SummarizeTag builds a TagSummary from the tag's current snapshot
func SummarizeTag(t *szurubooru.Tag) TagSummary {
	snap := t.Snapshot()
	return TagSummary{
		Names:       stringList(snap["names"]),
		Category:    stringField(snap, "category"),
		Usages:      intField(snap, "usages"),
		Description: stringField(snap, "description"),
	}
}

// SummarizePool builds a PoolSummary from the pool's current snapshot
func SummarizePool(p *szurubooru.Pool) PoolSummary {
	snap := p.Snapshot()
	return PoolSummary{
		ID:        intField(snap, "id"),
		Names:     stringList(snap["names"]),
		Category:  stringField(snap, "category"),
		PostCount: intField(snap, "postCount"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func timeField(m map[string]any, key string) time.Time {
	s := stringField(m, key)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// tagNames reads the primary names of a post's tags. Committed tags are
// micro-resources; pending ones may already be plain names.
func tagNames(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			if names := stringList(t["names"]); len(names) > 0 {
				out = append(out, names[0])
			}
		}
	}
	return out
}
