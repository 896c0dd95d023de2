package domain

import (
	"errors"
	"fmt"

	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/subset"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the metadata source has no asset for an address
	ErrNotFound = errors.New("media asset not found")

	// ErrServerOffline indicates the media server is unreachable
	ErrServerOffline = errors.New("media server is unreachable")

	// ErrMissingExtension indicates metadata carries neither extension nor path
	ErrMissingExtension = errors.New("media asset needs an extension")

	// ErrUnknownExtension indicates an extension outside the mime table
	ErrUnknownExtension = errors.New("unknown file extension")

	// ErrDuplicateCompleteSample indicates "complete" was declared twice
	ErrDuplicateCompleteSample = errors.New("sample \"complete\" declared in samples and at root")
)

// Errors raised by the leaf packages, re-exported for callers matching with
// errors.As.
type (
	InvalidURIError           = mediauri.InvalidURIError
	OutOfRangeError           = subset.OutOfRangeError
	UnsupportedPartCountError = subset.UnsupportedPartCountError
	SelectorSyntaxError       = subset.SyntaxError
)

// UnresolvedMediaError reports an address that could not be resolved.
// Referrer is empty for addresses requested by the caller.
type UnresolvedMediaError struct {
	URI      string
	Referrer string
	Err      error
}

func (e *UnresolvedMediaError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("unresolved media %s (referenced by %s): %v", e.URI, e.Referrer, e.Err)
	}
	return fmt.Sprintf("unresolved media %s: %v", e.URI, e.Err)
}

func (e *UnresolvedMediaError) Unwrap() error { return e.Err }

// SampleNotFoundError reports a fragment naming no sample of an asset.
type SampleNotFoundError struct {
	URI string
}

func (e *SampleNotFoundError) Error() string {
	return fmt.Sprintf("sample not found: %s", e.URI)
}

// MetadataError reports invalid metadata of an asset.
type MetadataError struct {
	URI   string
	Field string
	Err   error
}

func (e *MetadataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid metadata of %s: %v", e.URI, e.Err)
	}
	return fmt.Sprintf("invalid metadata of %s: %s: %v", e.URI, e.Field, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }
