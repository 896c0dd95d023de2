package domain

import (
	"fmt"
	"strings"

	"github.com/mmcdole/baldr/internal/mediauri"
)

// Sample is a named, time-ranged part of a playable asset.
type Sample struct {
	Asset *Asset
	Name  string
	Title string

	// Start and End are offsets in seconds. A nil End means the natural end
	// of the media.
	Start float64
	End   *float64

	FadeIn  float64
	FadeOut float64

	Shortcut string
}

// URI returns the asset address with the sample name as fragment.
func (s *Sample) URI() string {
	return mediauri.Compose(s.Asset.URI.Scheme, s.Asset.URI.Authority, s.Name)
}

// Duration returns End-Start when the sample has an end.
func (s *Sample) Duration() (float64, bool) {
	if s.End == nil {
		return 0, false
	}
	return *s.End - s.Start, true
}

// DisplayTitle combines the sample and asset titles.
func (s *Sample) DisplayTitle() string {
	if s.Name == CompleteSampleName {
		return s.Asset.Title()
	}
	return fmt.Sprintf("%s (%s)", s.Title, s.Asset.Title())
}

// SampleCollection holds the samples of one asset in a stable order.
type SampleCollection struct {
	asset   *Asset
	order   []*Sample
	byName  map[string]*Sample
	derived bool
}

func newSampleCollection(a *Asset) *SampleCollection {
	c := &SampleCollection{asset: a, byName: make(map[string]*Sample)}
	facts := a.Facts

	declaresComplete := false
	for _, spec := range facts.DeclaredSamples {
		if spec.Name == CompleteSampleName {
			declaresComplete = true
			break
		}
	}

	if !declaresComplete {
		root := SampleSpec{Name: CompleteSampleName, FadeIn: DefaultFadeIn, FadeOut: DefaultFadeOut}
		if facts.RootSample != nil {
			root = *facts.RootSample
		}
		c.add(root)
		c.derived = true
	}

	counter := 0
	for _, spec := range facts.DeclaredSamples {
		if spec.Name == "" {
			counter++
			spec.Name = fmt.Sprintf("sample%d", counter)
			if spec.Title == "" {
				spec.Title = fmt.Sprintf("Sample %d", counter)
			}
		}
		c.add(spec)
	}
	return c
}

// add keeps the first declaration of a name.
func (c *SampleCollection) add(spec SampleSpec) {
	if _, ok := c.byName[spec.Name]; ok {
		return
	}
	title := spec.Title
	if title == "" {
		title = spec.Name
		if spec.Name == CompleteSampleName {
			title = "Complete"
		}
	}
	s := &Sample{
		Asset:    c.asset,
		Name:     spec.Name,
		Title:    title,
		Start:    spec.Start,
		End:      spec.End,
		FadeIn:   spec.FadeIn,
		FadeOut:  spec.FadeOut,
		Shortcut: spec.Shortcut,
	}
	c.byName[s.Name] = s
	c.order = append(c.order, s)
}

// Get looks a sample up by name or by sample address ("ref:X#name").
func (c *SampleCollection) Get(nameOrURI string) (*Sample, error) {
	name := nameOrURI
	if i := strings.IndexByte(nameOrURI, '#'); i >= 0 {
		name = nameOrURI[i+1:]
	} else if mediauri.IsValid(nameOrURI) {
		name = CompleteSampleName
	}
	if s, ok := c.byName[name]; ok {
		return s, nil
	}
	return nil, &SampleNotFoundError{URI: mediauri.Compose(c.asset.URI.Scheme, c.asset.URI.Authority, name)}
}

// Complete returns the sample spanning the whole asset.
func (c *SampleCollection) Complete() *Sample {
	return c.byName[CompleteSampleName]
}

// All returns the samples in declaration order. A synthesized complete
// sample comes first.
func (c *SampleCollection) All() []*Sample {
	out := make([]*Sample, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of samples.
func (c *SampleCollection) Len() int { return len(c.order) }

// Synthesized reports whether the complete sample was derived rather than
// declared in the samples list.
func (c *SampleCollection) Synthesized() bool { return c.derived }
