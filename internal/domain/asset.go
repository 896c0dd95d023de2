package domain

import (
	"strings"

	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/subset"
)

// Asset is a resolved media file: its raw metadata plus derived facts.
type Asset struct {
	// URI is the canonical address. It uses the ref scheme whenever the
	// metadata names a ref.
	URI mediauri.URI

	Raw   jsonvalue.Value
	Facts AssetFacts

	// Locator is the base location of the media file.
	Locator string

	// Samples is set for audio and video assets only.
	Samples *SampleCollection

	// References lists the canonical addresses embedded in Raw, in scan
	// order, without duplicates or the asset itself.
	References []string

	// Shortcut is set on images only.
	Shortcut string
}

// NewAsset validates raw and builds an Asset. requested is the address used
// to fetch the metadata; mediaBaseURL is prefixed to the metadata path to
// form the locator.
func NewAsset(requested mediauri.URI, mediaBaseURL string, raw jsonvalue.Value) (*Asset, error) {
	requested = requested.WithoutFragment()
	facts, err := ExtractFacts(requested.String(), raw)
	if err != nil {
		return nil, err
	}
	facts.Ref = mediauri.RemoveScheme(facts.Ref)
	facts.UUID = mediauri.RemoveScheme(facts.UUID)

	a := &Asset{
		URI:     requested,
		Raw:     raw,
		Facts:   facts,
		Locator: JoinLocator(mediaBaseURL, facts.Path),
	}
	if facts.Ref != "" && mediauri.IsValid(mediauri.Compose(mediauri.SchemeRef, facts.Ref, "")) {
		a.URI = mediauri.URI{Scheme: mediauri.SchemeRef, Authority: facts.Ref}
	}
	if facts.Category == MimeImage {
		a.Shortcut = facts.Shortcut
	}
	if facts.Category.IsPlayable() {
		a.Samples = newSampleCollection(a)
	}
	a.References = a.scanReferences()
	return a, nil
}

// JoinLocator joins a base URL and a relative media path with one slash.
func JoinLocator(base, p string) string {
	switch {
	case base == "":
		return p
	case p == "":
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

func (a *Asset) scanReferences() []string {
	self := map[string]bool{a.URI.String(): true}
	if a.Facts.Ref != "" {
		self[mediauri.Compose(mediauri.SchemeRef, a.Facts.Ref, "")] = true
	}
	if a.Facts.UUID != "" {
		self[mediauri.Compose(mediauri.SchemeUUID, a.Facts.UUID, "")] = true
	}

	seen := make(map[string]bool)
	var refs []string
	for _, s := range a.Raw.Strings() {
		for _, found := range mediauri.FindAll(s) {
			canonical := mediauri.RemoveFragment(found)
			if self[canonical] || seen[canonical] {
				continue
			}
			seen[canonical] = true
			refs = append(refs, canonical)
		}
	}
	return refs
}

// RefURI returns "ref:<ref>" or the empty string.
func (a *Asset) RefURI() string {
	if a.Facts.Ref == "" {
		return ""
	}
	return mediauri.Compose(mediauri.SchemeRef, a.Facts.Ref, "")
}

// UUIDURI returns "uuid:<uuid>" or the empty string.
func (a *Asset) UUIDURI() string {
	if a.Facts.UUID == "" {
		return ""
	}
	return mediauri.Compose(mediauri.SchemeUUID, a.Facts.UUID, "")
}

// Title returns the metadata title, falling back to the file name and then
// the address.
func (a *Asset) Title() string {
	if a.Facts.Title != "" {
		return a.Facts.Title
	}
	if a.Facts.Filename != "" {
		return a.Facts.Filename
	}
	return a.URI.String()
}

func (a *Asset) Category() MimeCategory { return a.Facts.Category }

func (a *Asset) IsPlayable() bool { return a.Facts.Category.IsPlayable() }

func (a *Asset) MultiPartCount() int { return a.Facts.MultiPartCount }

// PartLocator returns the locator of part no (1-based).
func (a *Asset) PartLocator(no int) (string, error) {
	return subset.PartLocator(a.Locator, no, a.Facts.MultiPartCount)
}

// PreviewLocator returns the preview image locator when the asset has one.
func (a *Asset) PreviewLocator() (string, bool) {
	if !a.Facts.HasPreview {
		return "", false
	}
	return a.Locator + "_preview.jpg", true
}

// WaveformLocator returns the waveform image locator when the asset has one.
func (a *Asset) WaveformLocator() (string, bool) {
	if !a.Facts.HasWaveform {
		return "", false
	}
	return a.Locator + "_waveform.png", true
}

// MultiPartSelection is a read-only view of selected parts of an asset.
type MultiPartSelection struct {
	Asset *Asset
	Spec  string
	Parts []int
}

// SelectParts applies a subset selector such as "2-5" to the asset's parts.
func (a *Asset) SelectParts(spec string) (*MultiPartSelection, error) {
	parts, err := subset.Select(spec, a.Facts.MultiPartCount)
	if err != nil {
		return nil, err
	}
	return &MultiPartSelection{Asset: a, Spec: spec, Parts: parts}, nil
}

// Locators returns the locator of every selected part.
func (s *MultiPartSelection) Locators() ([]string, error) {
	out := make([]string, 0, len(s.Parts))
	for _, no := range s.Parts {
		loc, err := s.Asset.PartLocator(no)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}
