// Package semver wraps github.com/Masterminds/semver with the strict
// parsing and comparison rules the update API relies on: versions must be
// full major.minor.patch strings, prerelease versions sort before their
// release counterparts, and build metadata never affects ordering.
package semver

import (
	"github.com/Masterminds/semver/v3"
)

// IsValid reports whether s is a strict semantic version
// (major.minor.patch with optional prerelease/build metadata).
// Partial forms like "1.0" or prefixed forms like "v1.0.0" are rejected.
func IsValid(s string) bool {
	_, err := semver.StrictNewVersion(s)
	return err == nil
}

// Compare returns -1, 0 or 1 when a is respectively less than, equal to
// or greater than b under semver precedence. Both inputs must already be
// valid; invalid input compares as equal to avoid surprising orderings,
// so callers validate first.
func Compare(a, b string) int {
	va, err := semver.StrictNewVersion(a)
	if err != nil {
		return 0
	}
	vb, err := semver.StrictNewVersion(b)
	if err != nil {
		return 0
	}
	return va.Compare(vb)
}

// IsNewer reports whether a is strictly newer than b.
func IsNewer(a, b string) bool {
	return Compare(a, b) > 0
}
