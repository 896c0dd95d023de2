package subset

import (
	"fmt"
	"path"
	"strings"
)

// MaxParts is the largest part count with a locator format.
const MaxParts = 999

// UnsupportedPartCountError is returned for resources split into more parts
// than the locator format can number.
type UnsupportedPartCountError struct {
	Count int
}

func (e *UnsupportedPartCountError) Error() string {
	return fmt.Sprintf("unsupported part count %d (max %d)", e.Count, MaxParts)
}

// PartLocator returns the locator of part no of a resource split into count
// parts. Part 1 is base itself; later parts carry "_noNN" before the
// extension, zero padded to two digits up to 99 parts and three digits up
// to 999.
func PartLocator(base string, no, count int) (string, error) {
	if count > MaxParts {
		return "", &UnsupportedPartCountError{Count: count}
	}
	if no < 1 || no > count {
		return "", &OutOfRangeError{Number: no, Max: count}
	}
	if no == 1 {
		return base, nil
	}

	width := 2
	if count > 99 {
		width = 3
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_no%0*d%s", stem, width, no, ext), nil
}
