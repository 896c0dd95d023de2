// Package local serves asset metadata from an on-disk bbolt index.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
)

// Bucket names
var (
	bucketAssets = []byte("assets") // ref -> metadata JSON
	bucketUUIDs  = []byte("uuids")  // uuid -> ref
)

// Index implements domain.AssetIndex using BoltDB.
type Index struct {
	db     *bolt.DB
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string][]byte // promoted on access
}

// Open opens or creates the index at path.
func Open(path string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketAssets, bucketUUIDs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Index{db: db, logger: logger, cache: make(map[string][]byte)}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

// === Generic helpers ===

func (x *Index) get(bucket []byte, key string) ([]byte, error) {
	cacheKey := string(bucket) + ":" + key

	x.mu.RLock()
	if data, ok := x.cache[cacheKey]; ok {
		x.mu.RUnlock()
		return data, nil
	}
	x.mu.RUnlock()

	var data []byte
	err := x.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", bucket, key, err)
	}
	if data == nil {
		return nil, domain.ErrNotFound
	}

	x.mu.Lock()
	x.cache[cacheKey] = data
	x.mu.Unlock()
	return data, nil
}

func (x *Index) forget(bucket []byte, key string) {
	x.mu.Lock()
	delete(x.cache, string(bucket)+":"+key)
	x.mu.Unlock()
}

// Fetch returns the stored metadata of a ref or uuid.
func (x *Index) Fetch(ctx context.Context, scheme, authority string) (jsonvalue.Value, error) {
	if err := ctx.Err(); err != nil {
		return jsonvalue.Value{}, err
	}

	ref := authority
	switch scheme {
	case mediauri.SchemeRef:
	case mediauri.SchemeUUID:
		data, err := x.get(bucketUUIDs, authority)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		ref = string(data)
	default:
		return jsonvalue.Value{}, fmt.Errorf("unsupported scheme %q", scheme)
	}

	data, err := x.get(bucketAssets, ref)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	raw, err := jsonvalue.Parse(data)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("corrupt index entry %s: %w", ref, err)
	}
	return raw, nil
}

// Put stores one metadata document. It must carry a ref. A missing uuid is
// generated; an existing entry keeps its uuid.
func (x *Index) Put(raw jsonvalue.Value) (domain.IndexEntry, error) {
	if raw.Kind() != jsonvalue.Object {
		return domain.IndexEntry{}, fmt.Errorf("metadata must be an object, got %s", raw.Kind())
	}
	ref, _ := raw.Get("ref").Str()
	if !mediauri.IsValid(mediauri.Compose(mediauri.SchemeRef, ref, "")) {
		return domain.IndexEntry{}, fmt.Errorf("invalid ref %q", ref)
	}

	id, _ := raw.Get("uuid").Str()
	if id != "" {
		if err := uuid.Validate(id); err != nil {
			return domain.IndexEntry{}, fmt.Errorf("asset %s: invalid uuid %q: %w", ref, id, err)
		}
	} else if prev, err := x.Fetch(context.Background(), mediauri.SchemeRef, ref); err == nil {
		id, _ = prev.Get("uuid").Str()
	}
	if id == "" {
		id = uuid.NewString()
	}
	raw = raw.With("uuid", jsonvalue.FromString(id))

	data, err := raw.MarshalJSON()
	if err != nil {
		return domain.IndexEntry{}, err
	}

	var staleUUID string
	err = x.db.Update(func(tx *bolt.Tx) error {
		uuids := tx.Bucket(bucketUUIDs)
		if owner := uuids.Get([]byte(id)); owner != nil && string(owner) != ref {
			return fmt.Errorf("uuid %s already belongs to %s", id, owner)
		}
		assets := tx.Bucket(bucketAssets)
		if old := assets.Get([]byte(ref)); old != nil {
			if prev, err := jsonvalue.Parse(old); err == nil {
				if oldID, _ := prev.Get("uuid").Str(); oldID != "" && oldID != id {
					staleUUID = oldID
					if err := uuids.Delete([]byte(oldID)); err != nil {
						return err
					}
				}
			}
		}
		if err := assets.Put([]byte(ref), data); err != nil {
			return err
		}
		return uuids.Put([]byte(id), []byte(ref))
	})
	if err != nil {
		return domain.IndexEntry{}, err
	}

	x.forget(bucketAssets, ref)
	x.forget(bucketUUIDs, id)
	if staleUUID != "" {
		x.forget(bucketUUIDs, staleUUID)
	}
	x.logger.Debug("indexed asset", "ref", ref, "uuid", id)
	return entryOf(ref, raw), nil
}

// Delete removes an asset and its uuid mapping.
func (x *Index) Delete(ref string) error {
	var id string
	err := x.db.Update(func(tx *bolt.Tx) error {
		assets := tx.Bucket(bucketAssets)
		data := assets.Get([]byte(ref))
		if data == nil {
			return domain.ErrNotFound
		}
		if prev, err := jsonvalue.Parse(data); err == nil {
			id, _ = prev.Get("uuid").Str()
		}
		if id != "" {
			if err := tx.Bucket(bucketUUIDs).Delete([]byte(id)); err != nil {
				return err
			}
		}
		return assets.Delete([]byte(ref))
	})
	if err != nil {
		return err
	}
	x.forget(bucketAssets, ref)
	if id != "" {
		x.forget(bucketUUIDs, id)
	}
	return nil
}

// Count returns the number of indexed assets.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := x.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketAssets).Stats().KeyN
		return nil
	})
	return n, err
}

// Titles returns every indexed asset in ref order.
func (x *Index) Titles(ctx context.Context) ([]domain.IndexEntry, error) {
	var entries []domain.IndexEntry
	err := x.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAssets).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := jsonvalue.Parse(v)
			if err != nil {
				x.logger.Warn("skipping corrupt index entry", "ref", string(k), "error", err)
				return nil
			}
			entries = append(entries, entryOf(string(k), raw))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func entryOf(ref string, raw jsonvalue.Value) domain.IndexEntry {
	e := domain.IndexEntry{Ref: ref}
	e.UUID, _ = raw.Get("uuid").Str()
	e.Title, _ = raw.Get("title").Str()
	if e.Title == "" {
		e.Title, _ = raw.Get("filename").Str()
	}
	return e
}
