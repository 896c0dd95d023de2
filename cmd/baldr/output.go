package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/resolver"
	"github.com/mmcdole/baldr/internal/search"
)

// Color palette
var (
	Amber     = lipgloss.Color("#E5A00D")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	ShortcutStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Amber).
			Padding(0, 1)
)

// printer writes command results as styled text, plain text or JSON
type printer struct {
	w      io.Writer
	styled bool
	json   bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	styled := false
	if f, ok := w.(*os.File); ok && !asJSON {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &printer{w: w, styled: styled, json: asJSON}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) shortcut(s string) string {
	if s == "" {
		return "   "
	}
	if !p.styled {
		return "[" + s + "]"
	}
	return ShortcutStyle.Render(s)
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// highlight styles the matched rune positions of s
func (p *printer) highlight(s string, matched []int) string {
	if !p.styled || len(matched) == 0 {
		return s
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(s) {
		if set[i] {
			b.WriteString(AccentStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sampleView is the JSON shape of a sample
type sampleView struct {
	URI      string   `json:"uri"`
	Title    string   `json:"title"`
	Start    float64  `json:"start"`
	End      *float64 `json:"end,omitempty"`
	FadeIn   float64  `json:"fadeIn"`
	FadeOut  float64  `json:"fadeOut"`
	Shortcut string   `json:"shortcut,omitempty"`
}

// assetView is the JSON shape of an asset
type assetView struct {
	URI        string       `json:"uri"`
	UUID       string       `json:"uuid,omitempty"`
	Title      string       `json:"title"`
	Category   string       `json:"category"`
	Locator    string       `json:"locator"`
	Parts      int          `json:"parts,omitempty"`
	Shortcut   string       `json:"shortcut,omitempty"`
	References []string     `json:"references,omitempty"`
	Samples    []sampleView `json:"samples,omitempty"`
}

func viewSample(s *domain.Sample) sampleView {
	return sampleView{
		URI:      s.URI(),
		Title:    s.Title,
		Start:    s.Start,
		End:      s.End,
		FadeIn:   s.FadeIn,
		FadeOut:  s.FadeOut,
		Shortcut: s.Shortcut,
	}
}

func viewAsset(a *domain.Asset) assetView {
	v := assetView{
		URI:        a.URI.String(),
		UUID:       a.Facts.UUID,
		Title:      a.Title(),
		Category:   string(a.Category()),
		Locator:    a.Locator,
		Parts:      a.MultiPartCount(),
		Shortcut:   a.Shortcut,
		References: a.References,
	}
	if a.Samples != nil {
		for _, s := range a.Samples.All() {
			v.Samples = append(v.Samples, viewSample(s))
		}
	}
	return v
}

func timeRange(s *domain.Sample) string {
	end := "end"
	if s.End != nil {
		end = domain.FormatSeconds(*s.End)
	}
	return domain.FormatSeconds(s.Start) + "-" + end
}

func (p *printer) printSample(s *domain.Sample, indent string) {
	fmt.Fprintf(p.w, "%s%s %s  %s %s\n", indent,
		p.shortcut(s.Shortcut),
		p.render(SubtitleStyle, s.URI()),
		s.Title,
		p.render(DimStyle, timeRange(s)))
}

func (p *printer) printResult(res *resolver.Result) error {
	if p.json {
		out := struct {
			Assets  []assetView `json:"assets"`
			Skipped []string    `json:"skipped,omitempty"`
		}{Assets: []assetView{}}
		for _, a := range res.Assets {
			out.Assets = append(out.Assets, viewAsset(a))
		}
		for _, s := range res.Skipped {
			out.Skipped = append(out.Skipped, s.URI)
		}
		return p.encode(out)
	}

	for _, a := range res.Assets {
		fmt.Fprintf(p.w, "%s %s  %s %s\n",
			p.shortcut(a.Shortcut),
			p.render(AccentStyle, a.URI.String()),
			p.render(TitleStyle, a.Title()),
			p.render(DimStyle, "("+string(a.Category())+")"))
		fmt.Fprintf(p.w, "    %s\n", p.render(DimStyle, a.Locator))
		if a.Samples != nil {
			for _, s := range a.Samples.All() {
				p.printSample(s, "    ")
			}
		}
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(p.w, "%s %s (from %s): %v\n", p.render(ErrorStyle, "skipped"), s.URI, s.Referrer, s.Err)
	}
	return nil
}

func (p *printer) printSamples(samples []*domain.Sample) error {
	if p.json {
		out := make([]sampleView, 0, len(samples))
		for _, s := range samples {
			out = append(out, viewSample(s))
		}
		return p.encode(out)
	}
	for _, s := range samples {
		p.printSample(s, "")
	}
	return nil
}

func (p *printer) printParts(sel *domain.MultiPartSelection) error {
	locators, err := sel.Locators()
	if err != nil {
		return err
	}
	if p.json {
		type part struct {
			No      int    `json:"no"`
			Locator string `json:"locator"`
		}
		out := make([]part, len(locators))
		for i, loc := range locators {
			out[i] = part{No: sel.Parts[i], Locator: loc}
		}
		return p.encode(out)
	}
	for i, loc := range locators {
		fmt.Fprintf(p.w, "%s %s\n", p.render(DimStyle, fmt.Sprintf("%3d", sel.Parts[i])), loc)
	}
	return nil
}

func (p *printer) printMatches(results []search.FilterResult) error {
	if p.json {
		out := make([]assetView, len(results))
		for i, r := range results {
			out[i] = viewAsset(r.Asset)
		}
		return p.encode(out)
	}
	for _, r := range results {
		fmt.Fprintf(p.w, "%s  %s\n", p.render(SubtitleStyle, r.Asset.URI.String()), p.highlight(r.Title, r.MatchedIndexes))
	}
	return nil
}

func (p *printer) printEntries(entries []domain.IndexEntry) error {
	if p.json {
		if entries == nil {
			entries = []domain.IndexEntry{}
		}
		return p.encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(p.w, "%s  %s\n", p.render(SubtitleStyle, "ref:"+e.Ref), e.Title)
	}
	return nil
}

func (p *printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(SuccessStyle, "✓ "+fmt.Sprintf(format, args...)))
}
