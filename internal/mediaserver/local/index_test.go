package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
)

const tigerUUID = "0b6f2c1e-9a43-4c39-8f0e-2f4c1a7d9b10"

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "index.db"), adapter.NullLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func mustYAML(t *testing.T, doc string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.ParseYAML([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestPutAndFetch(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()

	entry, err := x.Put(mustYAML(t, "ref: Tiger\nuuid: "+tigerUUID+"\ntitle: Tiger\npath: tiger.jpg"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if entry.Ref != "Tiger" || entry.UUID != tigerUUID || entry.Title != "Tiger" {
		t.Errorf("entry = %+v", entry)
	}

	byRef, err := x.Fetch(ctx, "ref", "Tiger")
	if err != nil {
		t.Fatalf("Fetch ref: %v", err)
	}
	byUUID, err := x.Fetch(ctx, "uuid", tigerUUID)
	if err != nil {
		t.Fatalf("Fetch uuid: %v", err)
	}
	if byRef.String() != byUUID.String() {
		t.Errorf("ref and uuid lookups differ: %s vs %s", byRef, byUUID)
	}
	if p, _ := byRef.Get("path").Str(); p != "tiger.jpg" {
		t.Errorf("path = %q", p)
	}

	if _, err := x.Fetch(ctx, "ref", "Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing ref err = %v", err)
	}
	if _, err := x.Fetch(ctx, "uuid", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing uuid err = %v", err)
	}
}

func TestFetchReportsReadFailure(t *testing.T) {
	x := openTestIndex(t)
	if _, err := x.Put(mustYAML(t, "ref: Tiger\nuuid: "+tigerUUID+"\npath: tiger.jpg")); err != nil {
		t.Fatal(err)
	}
	if err := x.Close(); err != nil {
		t.Fatal(err)
	}

	for _, scheme := range []string{"ref", "uuid"} {
		authority := "Tiger"
		if scheme == "uuid" {
			authority = tigerUUID
		}
		_, err := x.Fetch(context.Background(), scheme, authority)
		if err == nil || errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%s: err = %v, want read failure", scheme, err)
		}
	}
}

func TestPutAssignsAndKeepsUUID(t *testing.T) {
	x := openTestIndex(t)

	first, err := x.Put(mustYAML(t, "ref: A\ntitle: One"))
	if err != nil {
		t.Fatal(err)
	}
	if first.UUID == "" {
		t.Fatal("expected generated uuid")
	}

	second, err := x.Put(mustYAML(t, "ref: A\ntitle: Two"))
	if err != nil {
		t.Fatal(err)
	}
	if second.UUID != first.UUID || second.Title != "Two" {
		t.Errorf("re-import = %+v, want uuid %s kept", second, first.UUID)
	}
	if n, _ := x.Count(context.Background()); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestPutRejectsBadInput(t *testing.T) {
	x := openTestIndex(t)

	tests := []struct {
		name string
		doc  string
	}{
		{"no ref", "title: x"},
		{"bad ref", "ref: 'a b'"},
		{"bad uuid", "ref: A\nuuid: not-a-uuid"},
		{"not an object", "- ref: A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := x.Put(mustYAML(t, tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := x.Put(mustYAML(t, "ref: A\nuuid: "+tigerUUID)); err != nil {
		t.Fatal(err)
	}
	if _, err := x.Put(mustYAML(t, "ref: B\nuuid: "+tigerUUID)); err == nil {
		t.Error("expected uuid conflict")
	}
}

func TestDelete(t *testing.T) {
	x := openTestIndex(t)
	ctx := context.Background()
	if _, err := x.Put(mustYAML(t, "ref: A\nuuid: "+tigerUUID)); err != nil {
		t.Fatal(err)
	}
	if err := x.Delete("A"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := x.Fetch(ctx, "uuid", tigerUUID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("uuid still resolves: %v", err)
	}
	if err := x.Delete("A"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete = %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	x, err := Open(path, adapter.NullLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := x.Put(mustYAML(t, "ref: A\nfilename: a.mp3")); err != nil {
		t.Fatal(err)
	}
	x.Close()

	x, err = Open(path, adapter.NullLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()
	titles, err := x.Titles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 1 || titles[0].Title != "a.mp3" {
		t.Errorf("titles = %+v", titles)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportDirectory(t *testing.T) {
	x := openTestIndex(t)
	dir := t.TempDir()
	writeFile(t, dir, "Tiger.yml", "title: Tiger\npath: tiger.jpg\n")
	writeFile(t, dir, "songs/list.yaml", "- ref: S1\n  path: s1.mp3\n- ref: S2\n  path: s2.mp3\n")
	writeFile(t, dir, "lake.jsonc", `{
  // comment
  "ref": "Lake",
  "path": "lake.mp4",
}`)
	writeFile(t, dir, "broken.json", `{"ref": `)
	writeFile(t, dir, "notes.txt", "ignored")

	result, err := x.Import(dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(result.Imported) != 4 {
		t.Errorf("imported %d entries, want 4: %+v", len(result.Imported), result.Imported)
	}
	if len(result.Failed) != 1 {
		t.Errorf("failed = %v, want broken.json only", result.Failed)
	}

	ctx := context.Background()
	for _, ref := range []string{"Tiger", "S1", "S2", "Lake"} {
		if _, err := x.Fetch(ctx, "ref", ref); err != nil {
			t.Errorf("Fetch %s: %v", ref, err)
		}
	}
}

func TestReadMetadataFileRejectsScalars(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.yaml", "42\n")
	if _, err := ReadMetadataFile(path); err == nil {
		t.Error("expected error")
	}
}
