// Package refmatch matches Git refs against glob patterns taken from
// reflow manifests.
package refmatch

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var shortRefPrefixes = []string{"refs/heads/", "refs/tags/"}

// Match reports whether ref matches pattern with shell glob semantics:
// "*" and "?" stay within a "/"-separated segment, "[...]" classes may be
// negated with "!" or "^", "{a,b}" lists alternatives and a "**" segment
// matches zero or more whole segments.
//
// A pattern that does not start with "refs/" is also tried against the short
// name of a branch or tag, so "main" matches "refs/heads/main" and "v*"
// matches "refs/tags/v1.0". Malformed patterns never match.
func Match(ref, pattern string) bool {
	if match(pattern, ref) {
		return true
	}
	if strings.HasPrefix(pattern, "refs/") {
		return false
	}
	for _, prefix := range shortRefPrefixes {
		if short, ok := strings.CutPrefix(ref, prefix); ok {
			return match(pattern, short)
		}
	}
	return false
}

func match(pattern, name string) bool {
	matched, err := doublestar.Match(pattern, name)
	return err == nil && matched
}
