package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmcdole/baldr/internal/jsonvalue"
	"github.com/mmcdole/baldr/internal/mediauri"
)

// Sample timing defaults in seconds.
const (
	DefaultFadeIn  = 0.3
	DefaultFadeOut = 1.0
)

// CompleteSampleName names the sample spanning a whole playable asset.
const CompleteSampleName = "complete"

// AssetFacts is the validated, typed view of an asset's raw metadata.
type AssetFacts struct {
	Ref            string
	UUID           string
	Title          string
	Filename       string
	Path           string
	Extension      string
	Category       MimeCategory
	MultiPartCount int
	HasPreview     bool
	HasWaveform    bool

	// Shortcut declared at the root. Playable assets move it to their
	// complete sample.
	Shortcut string

	// RootSample is built from timing fields at the root, nil if none.
	RootSample *SampleSpec

	// DeclaredSamples lists the entries of "samples" in document order.
	DeclaredSamples []SampleSpec
}

// SampleSpec is a validated sample declaration.
type SampleSpec struct {
	Name     string
	Title    string
	Start    float64
	End      *float64
	FadeIn   float64
	FadeOut  float64
	Shortcut string
}

// ExtractFacts validates raw and extracts the fields the resolver depends
// on. uri is used in error messages only.
func ExtractFacts(uri string, raw jsonvalue.Value) (AssetFacts, error) {
	if raw.Kind() != jsonvalue.Object {
		return AssetFacts{}, &MetadataError{URI: uri, Err: fmt.Errorf("expected object, got %s", raw.Kind())}
	}
	fail := func(field string, err error) (AssetFacts, error) {
		return AssetFacts{}, &MetadataError{URI: uri, Field: field, Err: err}
	}

	f := AssetFacts{
		Ref:      stringField(raw, "ref"),
		UUID:     stringField(raw, "uuid"),
		Title:    stringField(raw, "title"),
		Filename: stringField(raw, "filename"),
		Path:     stringField(raw, "path"),
		Shortcut: stringField(raw, "shortcut"),
	}

	f.Extension = stringField(raw, "extension")
	if f.Extension == "" && f.Path != "" {
		f.Extension = ExtensionOf(f.Path)
	}
	if f.Extension == "" {
		return fail("extension", ErrMissingExtension)
	}
	category, err := CategoryForExtension(f.Extension)
	if err != nil {
		return fail("extension", err)
	}
	f.Category = category

	f.MultiPartCount = 1
	if v, ok := raw.Lookup("multiPartCount"); ok && !v.IsNull() {
		n, isNum := v.Num()
		if !isNum || n < 1 || n != math.Trunc(n) {
			return fail("multiPartCount", fmt.Errorf("must be a positive integer, got %s", v))
		}
		f.MultiPartCount = int(n)
	}

	f.HasPreview = truthy(raw.Get("hasPreview")) || truthy(raw.Get("previewImage"))
	f.HasWaveform = truthy(raw.Get("hasWaveform"))

	if !f.Category.IsPlayable() {
		return f, nil
	}

	root, err := rootSample(raw)
	if err != nil {
		return fail("root sample", err)
	}
	f.RootSample = root

	declared, err := declaredSamples(raw.Get("samples"))
	if err != nil {
		return fail("samples", err)
	}
	f.DeclaredSamples = declared

	if f.RootSample != nil {
		for _, s := range declared {
			if s.Name == CompleteSampleName {
				return fail("samples", ErrDuplicateCompleteSample)
			}
		}
	}
	return f, nil
}

var rootSampleFields = []string{"startTime", "endTime", "duration", "fadeIn", "fadeOut", "shortcut"}

func rootSample(raw jsonvalue.Value) (*SampleSpec, error) {
	fields := jsonvalue.NewObject()
	for _, key := range rootSampleFields {
		if v, ok := present(raw, key); ok {
			fields = fields.With(key, v)
		}
	}
	if len(fields.Members()) == 0 {
		return nil, nil
	}
	spec, err := parseSampleSpec(fields)
	if err != nil {
		return nil, err
	}
	spec.Name = CompleteSampleName
	return &spec, nil
}

// declaredSamples accepts a list of sample objects (named by "ref") or a
// mapping of name to sample object.
func declaredSamples(v jsonvalue.Value) ([]SampleSpec, error) {
	var out []SampleSpec
	switch v.Kind() {
	case jsonvalue.Null:
		return nil, nil
	case jsonvalue.Array:
		for i, item := range v.Items() {
			if item.Kind() != jsonvalue.Object {
				return nil, fmt.Errorf("entry %d: expected object, got %s", i+1, item.Kind())
			}
			spec, err := parseSampleSpec(item)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i+1, err)
			}
			spec.Name = stringField(item, "ref")
			if spec.Name != "" && !mediauri.IsValidFragment(spec.Name) {
				return nil, fmt.Errorf("entry %d: invalid sample name %q", i+1, spec.Name)
			}
			out = append(out, spec)
		}
	case jsonvalue.Object:
		for _, m := range v.Members() {
			if !mediauri.IsValidFragment(m.Key) {
				return nil, fmt.Errorf("invalid sample name %q", m.Key)
			}
			if m.Value.Kind() != jsonvalue.Object && !m.Value.IsNull() {
				return nil, fmt.Errorf("%s: expected object, got %s", m.Key, m.Value.Kind())
			}
			spec, err := parseSampleSpec(m.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", m.Key, err)
			}
			spec.Name = m.Key
			out = append(out, spec)
		}
	default:
		return nil, fmt.Errorf("expected list or mapping, got %s", v.Kind())
	}
	return out, nil
}

func parseSampleSpec(v jsonvalue.Value) (SampleSpec, error) {
	spec := SampleSpec{
		Title:    stringField(v, "title"),
		Shortcut: stringField(v, "shortcut"),
		FadeIn:   DefaultFadeIn,
		FadeOut:  DefaultFadeOut,
	}

	var err error
	if t, ok := present(v, "startTime"); ok {
		if spec.Start, err = ParseSeconds(t); err != nil {
			return spec, fmt.Errorf("startTime: %w", err)
		}
	}

	duration, hasDuration := present(v, "duration")
	endTime, hasEnd := present(v, "endTime")
	switch {
	case hasDuration && hasEnd:
		return spec, errors.New("duration and endTime are mutually exclusive")
	case hasDuration:
		d, err := ParseSeconds(duration)
		if err != nil {
			return spec, fmt.Errorf("duration: %w", err)
		}
		end := spec.Start + d
		if math.IsInf(end, 0) {
			return spec, fmt.Errorf("duration: invalid time %v", d)
		}
		spec.End = &end
	case hasEnd:
		end, err := ParseSeconds(endTime)
		if err != nil {
			return spec, fmt.Errorf("endTime: %w", err)
		}
		spec.End = &end
	}
	if spec.End != nil && spec.Start >= *spec.End {
		return spec, fmt.Errorf("start %v must be before end %v", spec.Start, *spec.End)
	}

	if t, ok := present(v, "fadeIn"); ok {
		if spec.FadeIn, err = ParseSeconds(t); err != nil {
			return spec, fmt.Errorf("fadeIn: %w", err)
		}
	}
	if t, ok := present(v, "fadeOut"); ok {
		if spec.FadeOut, err = ParseSeconds(t); err != nil {
			return spec, fmt.Errorf("fadeOut: %w", err)
		}
	}
	return spec, nil
}

func present(v jsonvalue.Value, key string) (jsonvalue.Value, bool) {
	val, ok := v.Lookup(key)
	if !ok || val.IsNull() {
		return val, false
	}
	return val, true
}

func stringField(v jsonvalue.Value, key string) string {
	s, _ := v.Get(key).Str()
	return s
}

func truthy(v jsonvalue.Value) bool {
	switch v.Kind() {
	case jsonvalue.Bool:
		b, _ := v.Bool()
		return b
	case jsonvalue.String:
		s, _ := v.Str()
		return s != ""
	case jsonvalue.Number:
		n, _ := v.Num()
		return n != 0
	}
	return false
}
