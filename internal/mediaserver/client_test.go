package mediaserver

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediaserver/local"
	"github.com/mmcdole/baldr/internal/mediaserver/server"
)

func TestNewClientLocal(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.Index.Path = filepath.Join(t.TempDir(), "index.db")

	src, err := NewClient(cfg, adapter.NullLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer src.Close()

	if _, ok := src.(*local.Index); !ok {
		t.Fatalf("source = %T, want *local.Index", src)
	}
	if _, err := src.Fetch(context.Background(), "ref", "X"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Fetch = %v, want ErrNotFound", err)
	}
}

func TestNewClientErrors(t *testing.T) {
	if _, err := NewClient(nil, nil); err == nil {
		t.Error("nil config accepted")
	}
	cfg := adapter.DefaultConfig()
	cfg.Server.Type = "ftp"
	if _, err := NewClient(cfg, nil); err == nil {
		t.Error("unknown type accepted")
	}
	cfg.Server.Type = adapter.SourceTypeREST
	cfg.Server.URL = ""
	if _, err := NewClient(cfg, nil); err == nil {
		t.Error("empty URL accepted")
	}
}

func TestProbeServer(t *testing.T) {
	idx, err := local.Open(filepath.Join(t.TempDir(), "index.db"), adapter.NullLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	raw, _ := jsonvalue.ParseYAML([]byte("ref: A\npath: a.jpg"))
	if _, err := idx.Put(raw); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(server.New(idx, adapter.NullLogger()).Handler())
	defer ts.Close()

	cfg := adapter.DefaultConfig()
	cfg.Server.Type = adapter.SourceTypeREST
	cfg.Server.URL = ts.URL + server.BasePath
	src, err := NewClient(cfg, adapter.NullLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if n, err := src.Count(context.Background()); err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}

	n, err := ProbeServer(context.Background(), cfg.Server.URL, adapter.NullLogger())
	if err != nil || n != 1 {
		t.Errorf("ProbeServer = %d, %v", n, err)
	}

	ts.Close()
	if _, err := ProbeServer(context.Background(), cfg.Server.URL, adapter.NullLogger()); !errors.Is(err, domain.ErrServerOffline) {
		t.Errorf("offline probe = %v", err)
	}
}
