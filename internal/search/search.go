// Package search matches user queries against asset titles.
package search

import (
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/baldr/internal/domain"
)

// FilterResult represents a search result with match metadata
type FilterResult struct {
	Asset          *domain.Asset
	Title          string
	MatchedIndexes []int // Character positions that matched (for highlighting)
	Score          int   // Higher is better
}

// assetSource adapts resolved assets to fuzzy.Source
type assetSource []*domain.Asset

func (s assetSource) String(i int) string { return s[i].Title() }

func (s assetSource) Len() int { return len(s) }

// FilterAssets returns the assets whose title fuzzily matches query, best
// match first. An empty query matches nothing.
func FilterAssets(query string, assets []*domain.Asset) []FilterResult {
	query = strings.TrimSpace(query)
	if query == "" || len(assets) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, assetSource(assets))
	results := make([]FilterResult, len(matches))
	for i, m := range matches {
		results[i] = FilterResult{
			Asset:          assets[m.Index],
			Title:          m.Str,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// RankTitles returns the index entries whose title (or ref, for untitled
// entries) contains the characters of query in order, closest match first.
// An empty query returns entries unchanged.
func RankTitles(query string, entries []domain.IndexEntry) []domain.IndexEntry {
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	targets := make([]string, len(entries))
	for i, e := range entries {
		targets[i] = e.Title
		if targets[i] == "" {
			targets[i] = e.Ref
		}
	}

	ranks := fuzzysearch.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	result := make([]domain.IndexEntry, len(ranks))
	for i, r := range ranks {
		result[i] = entries[r.OriginalIndex]
	}
	return result
}
