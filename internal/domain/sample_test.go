package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/mmcdole/baldr/internal/mediauri"
)

func sampleNames(c *SampleCollection) []string {
	var names []string
	for _, s := range c.All() {
		names = append(names, s.Name)
	}
	return names
}

func TestZeroDeclaredSamplesYieldsComplete(t *testing.T) {
	a, err := NewAsset(mediauri.MustParse("ref:Song"), "", mustYAML(t, "ref: Song\npath: song.mp3"))
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	all := a.Samples.All()
	if len(all) != 1 || all[0].Name != CompleteSampleName {
		t.Fatalf("samples = %v", sampleNames(a.Samples))
	}
	s := all[0]
	if s.Start != 0 || s.End != nil {
		t.Errorf("complete spans %v-%v, want whole media", s.Start, s.End)
	}
	if s.FadeIn != DefaultFadeIn || s.FadeOut != DefaultFadeOut {
		t.Errorf("fades = %v/%v", s.FadeIn, s.FadeOut)
	}
	if s.URI() != "ref:Song#complete" {
		t.Errorf("URI = %s", s.URI())
	}
	if !a.Samples.Synthesized() {
		t.Error("Synthesized = false")
	}
}

func TestSamplesMapping(t *testing.T) {
	a, err := NewAsset(mediauri.MustParse("ref:Tor"), "", mustYAML(t, `
ref: Tor
title: Tor
path: tor.m4a
startTime: 2
shortcut: o 1
samples:
  menschen:
    title: Die Menschen
    startTime: "1:02"
    duration: 10
  schluss:
    startTime: 120
    endTime: "2:30"
    fadeOut: 3
`))
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	if got := sampleNames(a.Samples); len(got) != 3 || got[0] != "complete" || got[1] != "menschen" || got[2] != "schluss" {
		t.Fatalf("names = %v", got)
	}

	complete := a.Samples.Complete()
	if complete.Start != 2 || complete.Shortcut != "o 1" {
		t.Errorf("complete = %+v", complete)
	}

	m, err := a.Samples.Get("ref:Tor#menschen")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Start != 62 || m.End == nil || *m.End != 72 {
		t.Errorf("menschen = %v-%v", m.Start, m.End)
	}
	if m.DisplayTitle() != "Die Menschen (Tor)" {
		t.Errorf("DisplayTitle = %q", m.DisplayTitle())
	}

	s, _ := a.Samples.Get("schluss")
	if d, ok := s.Duration(); !ok || d != 30 || s.FadeOut != 3 {
		t.Errorf("schluss duration = %v, fadeOut = %v", d, s.FadeOut)
	}
}

func TestSamplesListWithDeclaredComplete(t *testing.T) {
	a, err := NewAsset(mediauri.MustParse("ref:V"), "", mustYAML(t, `
ref: V
path: v.mp4
samples:
  - startTime: 10
  - ref: complete
    startTime: 1
  - title: Outro
    startTime: 50
`))
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	got := sampleNames(a.Samples)
	want := []string{"sample1", "complete", "sample2"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
	if a.Samples.Synthesized() {
		t.Error("Synthesized = true for declared complete")
	}
	s, _ := a.Samples.Get("sample2")
	if s.Title != "Outro" {
		t.Errorf("title = %q", s.Title)
	}
	s, _ = a.Samples.Get("sample1")
	if s.Title != "Sample 1" {
		t.Errorf("title = %q", s.Title)
	}
}

func TestSampleNotFound(t *testing.T) {
	a, err := NewAsset(mediauri.MustParse("ref:Song"), "", mustYAML(t, "path: song.mp3\nref: Song"))
	if err != nil {
		t.Fatalf("NewAsset: %v", err)
	}
	_, err = a.Samples.Get("ref:Song#missing")
	var notFound *SampleNotFoundError
	if !errors.As(err, &notFound) || notFound.URI != "ref:Song#missing" {
		t.Fatalf("err = %v", err)
	}
	if s, err := a.Samples.Get("ref:Song"); err != nil || s.Name != CompleteSampleName {
		t.Errorf("Get without fragment = %v, %v", s, err)
	}
}

func TestSampleValidation(t *testing.T) {
	tests := map[string]string{
		"duplicate complete": "startTime: 1\nsamples:\n  - ref: complete",
		"duration and end":   "samples:\n  a: {startTime: 1, endTime: 5, duration: 4}",
		"start after end":    "samples:\n  a: {startTime: 10, endTime: 5}",
		"bad time":           "samples:\n  a: {startTime: soon}",
		"end NaN":            "samples:\n  a: {startTime: 10, endTime: NaN}",
		"end yaml nan":       "samples:\n  a: {startTime: 10, endTime: .nan}",
		"end Inf":            "samples:\n  a: {startTime: 5, endTime: Inf}",
		"end yaml inf":       "samples:\n  a: {startTime: 5, endTime: .inf}",
		"overflowing end":    "samples:\n  a: {startTime: 5, endTime: \"" + strings.Repeat("9", 308) + ":0:0\"}",
		"bad sample name":    "samples:\n  my sample: {startTime: 1}",
		"bad list name":      "samples:\n  - ref: a.b\n    startTime: 1",
		"samples scalar":     "samples: 3",
	}
	for name, doc := range tests {
		_, err := NewAsset(mediauri.MustParse("ref:S"), "", mustYAML(t, "path: s.wav\n"+doc))
		var meta *MetadataError
		if !errors.As(err, &meta) {
			t.Errorf("%s: err = %v, want MetadataError", name, err)
		}
	}

	_, err := NewAsset(mediauri.MustParse("ref:S"), "", mustYAML(t, "path: s.wav\nstartTime: 1\nsamples:\n  - ref: complete"))
	if !errors.Is(err, ErrDuplicateCompleteSample) {
		t.Errorf("err = %v, want ErrDuplicateCompleteSample", err)
	}
}

func TestParseTimeString(t *testing.T) {
	tests := map[string]float64{
		"12.5":    12.5,
		"1:02":    62,
		"1:02:03": 3723,
		" 0:30 ":  30,
	}
	for in, want := range tests {
		got, err := ParseTimeString(in)
		if err != nil || got != want {
			t.Errorf("ParseTimeString(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "a:b", "1:2:3:4", "-1", "NaN", "+Inf", "1:inf", strings.Repeat("9", 308) + ":0:0"} {
		if _, err := ParseTimeString(in); err == nil {
			t.Errorf("ParseTimeString(%q) succeeded", in)
		}
	}
	if FormatSeconds(3723) != "1:02:03" || FormatSeconds(62) != "1:02" {
		t.Errorf("FormatSeconds = %s, %s", FormatSeconds(3723), FormatSeconds(62))
	}
}
