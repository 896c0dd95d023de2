package mediauri

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		raw  string
		want URI
	}{
		{"ref:Fuer-Elise", URI{Scheme: "ref", Authority: "Fuer-Elise"}},
		{"uuid:c262fe9b-c705-43fd-a5d4-4bb38178d9e7", URI{Scheme: "uuid", Authority: "c262fe9b-c705-43fd-a5d4-4bb38178d9e7"}},
		{"ref:Grosses-Tor_HB_Orchester_Samples#menschen", URI{Scheme: "ref", Authority: "Grosses-Tor_HB_Orchester_Samples", Fragment: "menschen"}},
		{"ref:Noten#1,3-5", URI{Scheme: "ref", Authority: "Noten", Fragment: "1,3-5"}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
		if got.String() != tt.raw {
			t.Errorf("String() = %q, want %q", got.String(), tt.raw)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"ref:",
		"http:example",
		"ref:a b",
		"ref:abc#",
		"ref:abc#x y",
		"ref:a.b",
		" ref:abc",
	} {
		_, err := Parse(raw)
		var invalid *InvalidURIError
		if !errors.As(err, &invalid) {
			t.Errorf("Parse(%q) error = %v, want InvalidURIError", raw, err)
			continue
		}
		if invalid.Raw != raw {
			t.Errorf("InvalidURIError.Raw = %q, want %q", invalid.Raw, raw)
		}
		if IsValid(raw) {
			t.Errorf("IsValid(%q) = true", raw)
		}
	}
}

func TestWithoutFragment(t *testing.T) {
	u := MustParse("ref:Song#chorus")
	if got := u.WithoutFragment().String(); got != "ref:Song" {
		t.Errorf("WithoutFragment() = %q", got)
	}
	if u.Fragment != "chorus" {
		t.Errorf("WithoutFragment mutated receiver")
	}
}

func TestRemoveFragmentAndScheme(t *testing.T) {
	if got := RemoveFragment("ref:Song#chorus"); got != "ref:Song" {
		t.Errorf("RemoveFragment = %q", got)
	}
	if got := RemoveFragment("ref:Song"); got != "ref:Song" {
		t.Errorf("RemoveFragment without fragment = %q", got)
	}
	if got := RemoveScheme("uuid:abc"); got != "abc" {
		t.Errorf("RemoveScheme uuid = %q", got)
	}
	if got := RemoveScheme("ref:abc#x"); got != "abc#x" {
		t.Errorf("RemoveScheme ref = %q", got)
	}
	if got := RemoveScheme("id:abc"); got != "id:abc" {
		t.Errorf("RemoveScheme unknown = %q", got)
	}
}

func TestCompose(t *testing.T) {
	if got := Compose("ref", "A", ""); got != "ref:A" {
		t.Errorf("Compose without fragment = %q", got)
	}
	if got := Compose("uuid", "x-1", "2-3"); got != "uuid:x-1#2-3" {
		t.Errorf("Compose with fragment = %q", got)
	}
}

func TestIsValidFragment(t *testing.T) {
	for _, s := range []string{"intro", "complete", "1-3,5", "a_b"} {
		if !IsValidFragment(s) {
			t.Errorf("IsValidFragment(%q) = false", s)
		}
	}
	for _, s := range []string{"", "my sample", "a.b", "a#b"} {
		if IsValidFragment(s) {
			t.Errorf("IsValidFragment(%q) = true", s)
		}
	}
}

func TestFindAll(t *testing.T) {
	text := `Listen to ref:Song#chorus and [look](uuid:c262fe9b) but not href:Nope. ref:B,`
	got := FindAll(text)
	want := []string{"ref:Song#chorus", "uuid:c262fe9b", "ref:B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindAll = %v, want %v", got, want)
	}
}

func TestFindAllNone(t *testing.T) {
	if got := FindAll("nothing to see"); len(got) != 0 {
		t.Errorf("FindAll = %v, want empty", got)
	}
}

func TestTranslator(t *testing.T) {
	tr := NewTranslator()
	tr.AddPair("c262fe9b", "Song")
	tr.AddPair("", "ignored")

	got, ok := tr.Ref(MustParse("uuid:c262fe9b#chorus"))
	if !ok || got.String() != "ref:Song#chorus" {
		t.Fatalf("Ref = %v, %v", got, ok)
	}
	if _, ok := tr.Ref(MustParse("uuid:unknown")); ok {
		t.Errorf("Ref(unknown) ok = true")
	}
	if got, ok := tr.Ref(MustParse("ref:Other")); !ok || got.String() != "ref:Other" {
		t.Errorf("Ref(ref) = %v, %v", got, ok)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("Len after Reset = %d", tr.Len())
	}
}
