package booru

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/szuru/szurubooru"
)

// fakeBooru serves the post endpoints the batch layer uses from memory.
type fakeBooru struct {
	mu       sync.Mutex
	posts    map[int]map[string]any
	failing  map[int]bool
	requests []string
	puts     []map[string]any
}

func newFakeBooru(posts ...map[string]any) *fakeBooru {
	f := &fakeBooru{posts: map[int]map[string]any{}, failing: map[int]bool{}}
	for _, post := range posts {
		f.posts[post["id"].(int)] = post
	}
	return f
}

func fakePost(id int, safety string, tags ...string) map[string]any {
	micro := make([]any, 0, len(tags))
	for _, tag := range tags {
		micro = append(micro, map[string]any{"names": []any{tag}, "category": "general"})
	}
	return map[string]any{
		"id":            id,
		"version":       1,
		"safety":        safety,
		"type":          "image",
		"tags":          micro,
		"flags":         []any{},
		"score":         id % 3,
		"favoriteCount": 0,
		"creationTime":  "2024-03-01T10:00:00Z",
	}
}

func (f *fakeBooru) log(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *fakeBooru) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

func (f *fakeBooru) count(method, path string) int {
	n := 0
	for _, entry := range f.seen() {
		if entry == method+" "+path {
			n++
		}
	}
	return n
}

func (f *fakeBooru) putBodies() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.puts)
}

func (f *fakeBooru) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, _ := strconv.Atoi(q.Get("offset"))
		limit, _ := strconv.Atoi(q.Get("limit"))

		f.mu.Lock()
		ids := make([]int, 0, len(f.posts))
		for id := range f.posts {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		results := []any{}
		for _, id := range ids[min(offset, len(ids)):min(offset+limit, len(ids))] {
			results = append(results, maps.Clone(f.posts[id]))
		}
		total := len(ids)
		f.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"query": q.Get("query"), "offset": offset, "limit": limit, "total": total, "results": results,
		})
	})

	mux.HandleFunc("GET /api/post/{id}", func(w http.ResponseWriter, r *http.Request) {
		post, ok := f.lookup(r)
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, post)
	})

	mux.HandleFunc("PUT /api/post/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"name": "ValidationError", "description": err.Error()})
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts = append(f.puts, body)

		id, _ := strconv.Atoi(r.PathValue("id"))
		post, ok := f.posts[id]
		if !ok {
			notFound(w)
			return
		}
		if names, ok := body["tags"].([]any); ok {
			micro := make([]any, 0, len(names))
			for _, name := range names {
				micro = append(micro, map[string]any{"names": []any{name}, "category": "general"})
			}
			post["tags"] = micro
		}
		if safety, ok := body["safety"].(string); ok {
			post["safety"] = safety
		}
		post["version"] = post["version"].(int) + 1
		writeJSON(w, http.StatusOK, post)
	})

	mux.HandleFunc("DELETE /api/post/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failing[id] {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"name": "InternalError", "description": "boom"})
			return
		}
		if _, ok := f.posts[id]; !ok {
			notFound(w)
			return
		}
		delete(f.posts, id)
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.log(r)
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeBooru) lookup(r *http.Request) (map[string]any, bool) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	return maps.Clone(post), ok
}

func (f *fakeBooru) has(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.posts[id]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"name": "PostNotFoundError", "description": "post not found"})
}

func newTestClient(t *testing.T, f *fakeBooru) *szurubooru.Client {
	t.Helper()

	server := httptest.NewServer(f.handler())
	t.Cleanup(server.Close)

	endpoint, err := szurubooru.ResolveEndpoint(server.URL, szurubooru.Credentials{}, "")
	require.NoError(t, err)

	client, err := szurubooru.NewClient(endpoint, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func postPath(id int) string {
	return fmt.Sprintf("/api/post/%d", id)
}
