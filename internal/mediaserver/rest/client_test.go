package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediaserver/local"
	"github.com/mmcdole/baldr/internal/mediaserver/server"
)

const lakeUUID = "5e0c7d0a-3f55-4f0f-a2a4-7a1e8f3d6c21"

func newTestServer(t *testing.T) *Client {
	t.Helper()
	idx, err := local.Open(filepath.Join(t.TempDir(), "index.db"), adapter.NullLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })

	for _, doc := range []string{
		"ref: Lake\nuuid: " + lakeUUID + "\ntitle: Mountain Lake\npath: lake.mp4\ndescription: see ref:Tiger",
		"ref: Tiger\ntitle: Tiger\npath: tiger.jpg",
	} {
		raw, err := jsonvalue.ParseYAML([]byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := idx.Put(raw); err != nil {
			t.Fatal(err)
		}
	}

	ts := httptest.NewServer(server.New(idx, adapter.NullLogger()).Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+server.BasePath, 5*time.Second, adapter.NullLogger())
}

func TestClientFetch(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	raw, err := c.Fetch(ctx, "ref", "Lake")
	if err != nil {
		t.Fatalf("Fetch ref: %v", err)
	}
	keys := []string{}
	for _, m := range raw.Members() {
		keys = append(keys, m.Key)
	}
	want := []string{"ref", "uuid", "title", "path", "description"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v (order preserved)", keys, want)
		}
	}

	byUUID, err := c.Fetch(ctx, "uuid", lakeUUID)
	if err != nil {
		t.Fatalf("Fetch uuid: %v", err)
	}
	if ref, _ := byUUID.Get("ref").Str(); ref != "Lake" {
		t.Errorf("uuid lookup ref = %q", ref)
	}

	if _, err := c.Fetch(ctx, "ref", "Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
	if _, err := c.Fetch(ctx, "http", "x"); err == nil {
		t.Error("expected unsupported scheme error")
	}
}

func TestClientCountAndQuery(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	n, err := c.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	all, err := c.Titles(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("Titles = %+v, %v", all, err)
	}

	hits, err := c.Query(ctx, "lake")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Ref != "Lake" || hits[0].UUID != lakeUUID {
		t.Errorf("Query = %+v", hits)
	}

	none, err := c.Query(ctx, "zzz")
	if err != nil || len(none) != 0 {
		t.Errorf("Query zzz = %+v, %v", none, err)
	}
}

func TestClientNullBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, 0, adapter.NullLogger())
	if _, err := c.Fetch(context.Background(), "ref", "X"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestClientErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	c := NewClient(ts.URL, 0, adapter.NullLogger())
	_, err := c.Fetch(context.Background(), "ref", "X")
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("500 err = %v", err)
	}

	ts.Close()
	if _, err := c.Fetch(context.Background(), "ref", "X"); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("closed server err = %v, want ErrServerOffline", err)
	}
}
