package szurubooru

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// requestLog records "METHOD /path" for every request a test server sees.
type requestLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, r.Method+" "+r.URL.EscapedPath())
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *requestLog) count() int {
	return len(l.all())
}

// bodyLog collects decoded request bodies across handler goroutines.
type bodyLog struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (b *bodyLog) add(body map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies = append(b.bodies, body)
}

func (b *bodyLog) all() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.bodies...)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *requestLog) {
	t.Helper()

	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	endpoint, err := ResolveEndpoint(server.URL, Credentials{}, "")
	require.NoError(t, err)

	client, err := NewClient(endpoint, zerolog.Nop())
	require.NoError(t, err)
	return client, log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"name":        name,
			"description": "not found",
		})
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}
