// Package shortcut hands out single-digit keyboard shortcuts per media
// category.
package shortcut

import (
	"fmt"
	"sync"

	"github.com/mmcdole/baldr/internal/domain"
)

// Max is the number of shortcuts available per category.
const Max = 10

var prefixes = map[domain.MimeCategory]string{
	domain.MimeAudio: "a",
	domain.MimeVideo: "v",
	domain.MimeImage: "i",
}

// Allocator keeps one counter per category.
type Allocator struct {
	mu     sync.Mutex
	counts map[domain.MimeCategory]int
}

func NewAllocator() *Allocator {
	return &Allocator{counts: make(map[domain.MimeCategory]int)}
}

// Next returns "<prefix> 1" through "<prefix> 9", then "<prefix> 0" for the
// tenth call. ok is false once a category is exhausted and for categories
// without shortcuts.
func (a *Allocator) Next(category domain.MimeCategory) (string, bool) {
	prefix, ok := prefixes[category]
	if !ok {
		return "", false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	n := a.counts[category]
	if n >= Max {
		return "", false
	}
	n++
	a.counts[category] = n
	return fmt.Sprintf("%s %d", prefix, n%10), true
}

// Reset zeroes all counters.
func (a *Allocator) Reset() {
	a.mu.Lock()
	a.counts = make(map[domain.MimeCategory]int)
	a.mu.Unlock()
}

// AssignAsset gives an image its shortcut unless it declares one.
func (a *Allocator) AssignAsset(asset *domain.Asset) {
	if asset.Shortcut != "" || asset.Category() != domain.MimeImage {
		return
	}
	if s, ok := a.Next(domain.MimeImage); ok {
		asset.Shortcut = s
	}
}

// AssignSample gives a sample its shortcut unless it declares one.
func (a *Allocator) AssignSample(sample *domain.Sample) {
	if sample.Shortcut != "" {
		return
	}
	if s, ok := a.Next(sample.Asset.Category()); ok {
		sample.Shortcut = s
	}
}
