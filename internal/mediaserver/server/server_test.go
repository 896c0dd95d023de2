package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
)

// memoryIndex is an in-memory domain.AssetIndex
type memoryIndex struct {
	docs map[string]string // ref -> JSON
	err  error
}

func (m *memoryIndex) Fetch(ctx context.Context, scheme, authority string) (jsonvalue.Value, error) {
	if m.err != nil {
		return jsonvalue.Value{}, m.err
	}
	doc, ok := m.docs[authority]
	if !ok || scheme != "ref" {
		return jsonvalue.Value{}, domain.ErrNotFound
	}
	return jsonvalue.Parse([]byte(doc))
}

func (m *memoryIndex) Count(ctx context.Context) (int, error) { return len(m.docs), m.err }

func (m *memoryIndex) Titles(ctx context.Context) ([]domain.IndexEntry, error) {
	return []domain.IndexEntry{{Ref: "A", Title: "Alpha"}, {Ref: "B", Title: "Beta"}}, m.err
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetAsset(t *testing.T) {
	s := New(&memoryIndex{docs: map[string]string{"A": `{"ref":"A","z":1,"a":2}`}}, adapter.NullLogger())

	tests := []struct {
		target string
		status int
		body   string
	}{
		{BasePath + "/get/asset?ref=A", http.StatusOK, `{"ref":"A","z":1,"a":2}`},
		{BasePath + "/get/asset?ref=B", http.StatusNotFound, ""},
		{BasePath + "/get/asset?uuid=A", http.StatusNotFound, ""},
		{BasePath + "/get/asset", http.StatusBadRequest, ""},
		{BasePath + "/get/asset?ref=a%20b", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := get(t, s, tt.target)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.target, rec.Code, tt.status)
		}
		if tt.body != "" && rec.Body.String() != tt.body {
			t.Errorf("%s: body = %s, want %s", tt.target, rec.Body, tt.body)
		}
	}
}

func TestCountAndQuery(t *testing.T) {
	s := New(&memoryIndex{docs: map[string]string{"A": "{}", "B": "{}"}}, adapter.NullLogger())

	rec := get(t, s, BasePath+"/stats/count")
	var count struct{ Count int }
	if err := json.Unmarshal(rec.Body.Bytes(), &count); err != nil || count.Count != 2 {
		t.Errorf("count body = %s", rec.Body)
	}

	rec = get(t, s, BasePath+"/query?search=bet")
	var entries []domain.IndexEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Ref != "B" {
		t.Errorf("query = %+v", entries)
	}

	rec = get(t, s, BasePath+"/query?search=zzz")
	if rec.Body.String() != "[]" {
		t.Errorf("empty query body = %s, want []", rec.Body)
	}
}

func TestIndexFailure(t *testing.T) {
	s := New(&memoryIndex{err: errors.New("disk gone")}, adapter.NullLogger())
	for _, target := range []string{"/get/asset?ref=A", "/stats/count", "/query"} {
		if rec := get(t, s, BasePath+target); rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
	if rec := get(t, s, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestCompression(t *testing.T) {
	s := New(&memoryIndex{docs: map[string]string{"A": `{"ref":"A"}`}}, adapter.NullLogger(), WithCompression(-1))

	req := httptest.NewRequest(http.MethodGet, BasePath+"/get/asset?ref=A", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}

	if rec := get(t, s, BasePath+"/get/asset?ref=A"); rec.Body.String() != `{"ref":"A"}` {
		t.Errorf("uncompressed body = %s", rec.Body)
	}
}
