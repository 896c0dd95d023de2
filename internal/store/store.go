// Package store holds the in-memory state of one resolution session: the
// asset and sample caches, the uuid translator, the shortcut counters and
// the raw metadata memo.
package store

import (
	"sync"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/shortcut"
)

// Session owns every cache of one resolution session. Independent sessions
// share nothing.
type Session struct {
	Assets     *AssetCache
	Samples    *SampleCache
	Translator *mediauri.Translator
	Shortcuts  *shortcut.Allocator

	// mu serializes materialization so shortcut order follows registration
	// order.
	mu sync.Mutex

	rawMu sync.RWMutex
	raw   map[string]jsonvalue.Value
}

func NewSession() *Session {
	t := mediauri.NewTranslator()
	return &Session{
		Assets:     NewAssetCache(t),
		Samples:    NewSampleCache(t),
		Translator: t,
		Shortcuts:  shortcut.NewAllocator(),
		raw:        make(map[string]jsonvalue.Value),
	}
}

// Register publishes a freshly built asset. When an asset with the same
// canonical address is already cached, that instance is returned and a is
// discarded. New assets get their uuid alias recorded, their shortcuts
// allocated and their samples cached.
func (s *Session) Register(a *domain.Asset) (*domain.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.Assets.Get(a.URI.String()); ok {
		return existing, false
	}
	if a.URI.Scheme == mediauri.SchemeRef {
		s.Translator.AddPair(a.Facts.UUID, a.Facts.Ref)
	}
	s.Shortcuts.AssignAsset(a)
	s.Assets.Add(a.URI.String(), a)

	if a.Samples != nil {
		for _, sample := range a.Samples.All() {
			if s.Samples.Add(sample.URI(), sample) {
				s.Shortcuts.AssignSample(sample)
			}
		}
	}
	return a, true
}

// Raw returns memoized metadata for a canonical address.
func (s *Session) Raw(uri string) (jsonvalue.Value, bool) {
	s.rawMu.RLock()
	defer s.rawMu.RUnlock()
	v, ok := s.raw[uri]
	return v, ok
}

// StoreRaw memoizes metadata for a canonical address.
func (s *Session) StoreRaw(uri string, v jsonvalue.Value) {
	s.rawMu.Lock()
	s.raw[uri] = v
	s.rawMu.Unlock()
}

// Reset clears all caches and restarts shortcut numbering.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Assets.Reset()
	s.Samples.Reset()
	s.Translator.Reset()
	s.Shortcuts.Reset()

	s.rawMu.Lock()
	s.raw = make(map[string]jsonvalue.Value)
	s.rawMu.Unlock()
}
