package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmcdole/baldr/internal/jsonvalue"
)

// ParseSeconds reads a time value: a number of seconds, or a string holding
// seconds ("12.5"), "m:s" or "h:m:s".
func ParseSeconds(v jsonvalue.Value) (float64, error) {
	if n, ok := v.Num(); ok {
		if n < 0 || !finite(n) {
			return 0, fmt.Errorf("invalid time %v", n)
		}
		return n, nil
	}
	s, ok := v.Str()
	if !ok {
		return 0, fmt.Errorf("time must be a number or string, got %s", v.Kind())
	}
	return ParseTimeString(s)
}

// ParseTimeString parses "12.5", "1:02.5" or "1:02:03".
func ParseTimeString(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	var total float64
	for _, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 || !finite(n) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		total = total*60 + n
	}
	if !finite(total) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return total, nil
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// FormatSeconds renders seconds as m:ss or h:mm:ss.
func FormatSeconds(sec float64) string {
	total := int(sec + 0.5)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
