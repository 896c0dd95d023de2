package local

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
)

// ImportResult summarizes an import run
type ImportResult struct {
	Imported []domain.IndexEntry
	Failed   map[string]error // file -> error
}

// supportedExt reports whether a file holds metadata the importer reads
func supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml", ".json", ".jsonc":
		return true
	}
	return false
}

// Import indexes metadata files. Directories are walked for *.yml, *.yaml,
// *.json and *.jsonc files. A file that fails is recorded and the run
// continues.
func (x *Index) Import(paths ...string) (*ImportResult, error) {
	result := &ImportResult{Failed: make(map[string]error)}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return result, err
		}
		if !info.IsDir() {
			x.importInto(result, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !supportedExt(path) {
				return nil
			}
			x.importInto(result, path)
			return nil
		})
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (x *Index) importInto(result *ImportResult, path string) {
	entries, err := x.ImportFile(path)
	result.Imported = append(result.Imported, entries...)
	if err != nil {
		x.logger.Warn("import failed", "file", path, "error", err)
		result.Failed[path] = err
	}
}

// ImportFile indexes the documents of one file. A file holds one metadata
// object or a list of them. A single object without ref takes the file
// name as ref.
func (x *Index) ImportFile(path string) ([]domain.IndexEntry, error) {
	docs, err := ReadMetadataFile(path)
	if err != nil {
		return nil, err
	}

	var entries []domain.IndexEntry
	for i, doc := range docs {
		if !doc.Has("ref") && len(docs) == 1 {
			base := filepath.Base(path)
			doc = doc.With("ref", jsonvalue.FromString(strings.TrimSuffix(base, filepath.Ext(base))))
		}
		entry, err := x.Put(doc)
		if err != nil {
			return entries, fmt.Errorf("document %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadMetadataFile decodes a YAML, JSON or JSONC metadata file.
func ReadMetadataFile(path string) ([]jsonvalue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var v jsonvalue.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		v, err = jsonvalue.ParseYAML(data)
	case ".json", ".jsonc":
		v, err = jsonvalue.Parse(jsonc.ToJSON(data))
	default:
		return nil, fmt.Errorf("unsupported metadata file %s", path)
	}
	if err != nil {
		return nil, err
	}

	switch v.Kind() {
	case jsonvalue.Object:
		return []jsonvalue.Value{v}, nil
	case jsonvalue.Array:
		return v.Items(), nil
	default:
		return nil, fmt.Errorf("expected an object or a list, got %s", v.Kind())
	}
}
