// Package mediauri parses and composes media addresses of the form
// scheme:authority#fragment, where scheme is "ref" or "uuid".
package mediauri

import (
	"fmt"
	"regexp"
	"strings"
)

// Supported schemes.
const (
	SchemeRef  = "ref"
	SchemeUUID = "uuid"
)

const (
	authorityChars = `A-Za-z0-9_-`
	fragmentChars  = `A-Za-z0-9_,-`
)

var (
	fullPattern  = regexp.MustCompile(`^(ref|uuid):([` + authorityChars + `]+)(?:#([` + fragmentChars + `]+))?$`)
	embedPattern = regexp.MustCompile(`(?:ref|uuid):[` + authorityChars + `]+(?:#[` + fragmentChars + `]+)?`)
	fragPattern  = regexp.MustCompile(`^[` + fragmentChars + `]+$`)
)

// URI is a parsed media address.
type URI struct {
	Scheme    string
	Authority string
	Fragment  string
}

// InvalidURIError is returned when a string is not a media address.
type InvalidURIError struct {
	Raw string
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid media uri %q", e.Raw)
}

// Parse parses raw, which must match the grammar exactly.
func Parse(raw string) (URI, error) {
	m := fullPattern.FindStringSubmatch(raw)
	if m == nil {
		return URI{}, &InvalidURIError{Raw: raw}
	}
	return URI{Scheme: m[1], Authority: m[2], Fragment: m[3]}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level constants.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// IsValid reports whether raw is a complete media address.
func IsValid(raw string) bool {
	return fullPattern.MatchString(raw)
}

// IsValidFragment reports whether s can follow "#" in a media address.
func IsValidFragment(s string) bool {
	return fragPattern.MatchString(s)
}

// String composes the address back into its textual form.
func (u URI) String() string {
	return Compose(u.Scheme, u.Authority, u.Fragment)
}

// WithoutFragment returns the canonical address used as cache key.
func (u URI) WithoutFragment() URI {
	u.Fragment = ""
	return u
}

// HasFragment reports whether a fragment is present.
func (u URI) HasFragment() bool {
	return u.Fragment != ""
}

// MarshalText implements encoding.TextMarshaler.
func (u URI) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URI) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Compose builds "scheme:authority" and appends "#fragment" when fragment
// is not empty.
func Compose(scheme, authority, fragment string) string {
	s := scheme + ":" + authority
	if fragment != "" {
		s += "#" + fragment
	}
	return s
}

// RemoveFragment strips everything from the first '#'.
func RemoveFragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// RemoveScheme strips a leading "ref:" or "uuid:". Other input is returned
// unchanged.
func RemoveScheme(raw string) string {
	for _, scheme := range []string{SchemeRef, SchemeUUID} {
		if rest, ok := strings.CutPrefix(raw, scheme+":"); ok {
			return rest
		}
	}
	return raw
}

// FindAll returns every media address embedded in text, in order of
// appearance. A candidate directly preceded by an authority character is
// ignored, so "href:x" does not yield "ref:x".
func FindAll(text string) []string {
	var out []string
	for _, loc := range embedPattern.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isAuthorityByte(text[loc[0]-1]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func isAuthorityByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-':
		return true
	}
	return false
}
