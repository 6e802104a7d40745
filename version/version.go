// Package version implements the segmented-integer version comparison
// used to gate #[since]/#[until] annotated schema fields.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted sequence of integer segments, e.g. "1.20.5" ->
// [1, 20, 5]. Comparison is segment-by-segment; a shorter version is
// treated as having trailing zero segments, so "1.2" == "1.2.0" but
// "1.20.5" > "1.20".
type Version struct {
	segments []int
	raw      string
}

// Parse splits s on "." and parses each segment as a non-negative
// integer. An empty string is invalid.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("version: empty version string")
	}
	parts := strings.Split(s, ".")
	segments := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("version: invalid segment %q in %q", p, s)
		}
		segments[i] = n
	}
	return Version{segments: segments, raw: s}, nil
}

// MustParse panics on an invalid version string. Intended for literal
// version strings known to be valid, such as fixed versions in tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	return "0"
}

func (v Version) segment(i int) int {
	if i < len(v.segments) {
		return v.segments[i]
	}
	return 0
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other, comparing segment-by-segment with missing trailing
// segments treated as zero.
func (v Version) Compare(other Version) int {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a, b := v.segment(i), other.segment(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (v Version) Less(other Version) bool    { return v.Compare(other) < 0 }
func (v Version) Equal(other Version) bool   { return v.Compare(other) == 0 }
func (v Version) GreaterEq(o Version) bool   { return v.Compare(o) >= 0 }

// Gate represents an optional #[since]/#[until] pair attached to a
// field or union alternative. Either bound may be the zero Version,
// meaning unset.
type Gate struct {
	Since    Version
	HasSince bool
	Until    Version
	HasUntil bool
}

// Visible reports whether active is within [Since, Until) — since is
// inclusive, until is exclusive.
func (g Gate) Visible(active Version) bool {
	if g.HasSince && active.Less(g.Since) {
		return false
	}
	if g.HasUntil && !active.Less(g.Until) {
		return false
	}
	return true
}
