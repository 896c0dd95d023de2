// Package subset parses subset selectors such as "1,3-5" or "-4" and
// formats locators for the parts of multi-part resources.
package subset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// OutOfRangeError reports a selected number outside 1..Max.
type OutOfRangeError struct {
	Number int
	Max    int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("number %d is out of range 1-%d", e.Number, e.Max)
}

// SyntaxError reports a malformed selector token.
type SyntaxError struct {
	Spec  string
	Token string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed selector %q: bad token %q", e.Spec, e.Token)
}

var tokenPattern = regexp.MustCompile(`^(\d*)(-?)(\d*)$`)

// Select expands spec into 1-based numbers for a collection of count
// elements. Tokens are "n", "a-b", "-b" and "a-", separated by commas;
// whitespace is ignored. The result keeps declaration order and drops
// repeats. An empty spec selects everything.
func Select(spec string, count int) ([]int, error) {
	cleaned := strings.Join(strings.Fields(spec), "")
	if cleaned == "" {
		all := make([]int, count)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}

	seen := make(map[int]bool)
	var out []int
	for _, token := range strings.Split(cleaned, ",") {
		from, to, err := parseToken(spec, token, count)
		if err != nil {
			return nil, err
		}
		for _, n := range []int{from, to} {
			if n < 1 || n > count {
				return nil, &OutOfRangeError{Number: n, Max: count}
			}
		}
		if from > to {
			return nil, &SyntaxError{Spec: spec, Token: token}
		}
		for n := from; n <= to; n++ {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out, nil
}

func parseToken(spec, token string, count int) (int, int, error) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil || (m[1] == "" && m[3] == "") {
		return 0, 0, &SyntaxError{Spec: spec, Token: token}
	}
	if m[2] == "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, 0, &SyntaxError{Spec: spec, Token: token}
		}
		return n, n, nil
	}

	from, to := 1, count
	var err error
	if m[1] != "" {
		if from, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, &SyntaxError{Spec: spec, Token: token}
		}
	}
	if m[3] != "" {
		if to, err = strconv.Atoi(m[3]); err != nil {
			return 0, 0, &SyntaxError{Spec: spec, Token: token}
		}
	}
	return from, to, nil
}

// SelectElements applies spec to elements and returns the chosen ones.
func SelectElements[T any](spec string, elements []T) ([]T, error) {
	numbers, err := Select(spec, len(elements))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, elements[n-1])
	}
	return out, nil
}
