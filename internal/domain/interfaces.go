package domain

import (
	"context"

	"github.com/mmcdole/baldr/internal/jsonvalue"
)

// MetadataClient fetches the raw metadata of one asset.
// Implementations return ErrNotFound when the source has no such asset.
type MetadataClient interface {
	// Fetch returns the metadata for scheme ("ref" or "uuid") and authority.
	Fetch(ctx context.Context, scheme, authority string) (jsonvalue.Value, error)
}

// AssetIndex is a searchable metadata source.
type AssetIndex interface {
	MetadataClient

	// Count returns the number of indexed assets.
	Count(ctx context.Context) (int, error)

	// Titles returns ref and title of every indexed asset.
	Titles(ctx context.Context) ([]IndexEntry, error)
}

// IndexEntry is the searchable summary of an indexed asset.
type IndexEntry struct {
	Ref   string `json:"ref"`
	UUID  string `json:"uuid,omitempty"`
	Title string `json:"title,omitempty"`
}
