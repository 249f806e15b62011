// Package version parses and orders release versions.
//
// Ordering follows semantic-version precedence: numeric major/minor/patch by
// magnitude, a pre-release always below the same numeric version without one,
// pre-release identifiers compared per the semver rules (numeric identifiers
// by magnitude, numeric below alphanumeric, shorter identifier sequences
// below longer ones), and build metadata ignored entirely. The comparison is
// delegated to the semver library rather than hand-rolled string comparison,
// which is what previously caused newer pre-release tags to be mistaken for
// older versions.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseError reports a string that could not be parsed as a version.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Version is an ordered semantic version. Values are immutable once parsed.
type Version struct {
	v *semver.Version
}

// Parse parses a version string or release tag, accepting an optional
// leading "v". Unparsable input fails with a *ParseError; it never degrades
// into a comparable zero value.
func Parse(text string) (*Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(text), "v")
	sv, err := semver.StrictNewVersion(trimmed)
	if err != nil {
		return nil, &ParseError{Input: text, Err: err}
	}
	return &Version{v: sv}, nil
}

// MustParse parses text and panics on failure. For tests and constants only.
func MustParse(text string) *Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical form, without a leading "v".
func (v *Version) String() string {
	return v.v.String()
}

// Prerelease returns the pre-release segment, or "" for a stable version.
func (v *Version) Prerelease() string {
	return v.v.Prerelease()
}

// IsPrerelease returns true if the version carries a pre-release segment.
func (v *Version) IsPrerelease() bool {
	return v.v.Prerelease() != ""
}

// Compare returns -1, 0, or 1 as a orders below, equal to, or above b.
// Build metadata does not participate in the ordering.
func Compare(a, b *Version) int {
	return a.v.Compare(b.v)
}

// GreaterThan returns true if v orders strictly above other.
func (v *Version) GreaterThan(other *Version) bool {
	return Compare(v, other) > 0
}

// LessThan returns true if v orders strictly below other.
func (v *Version) LessThan(other *Version) bool {
	return Compare(v, other) < 0
}

// Equal returns true if v and other occupy the same position in the order.
// Versions differing only in build metadata are equal.
func (v *Version) Equal(other *Version) bool {
	return Compare(v, other) == 0
}
