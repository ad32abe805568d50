package version

import (
	"errors"
	"fmt"
	"math"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ErrInvalidVersion is returned when a version string does not follow the
// MAJOR.MINOR.PATCH grammar.
var ErrInvalidVersion = errors.New("invalid version")

const (
	segmentLimit = 1000
	majorWeight  = segmentLimit * segmentLimit
	minorWeight  = segmentLimit
	// largest major whose Num does not overflow uint64
	maxMajor = (math.MaxUint64 - (majorWeight - 1)) / majorWeight
)

// Version is a parsed firmware version. The zero value is 0.0.0.
type Version struct {
	major, minor, patch uint64
}

// Parse parses MAJOR.MINOR.PATCH, with an optional leading "v". Missing
// segments default to zero, so a bare build number "42" is 42.0.0.
// Pre-release and build metadata suffixes are rejected.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, fmt.Errorf("%w: empty", ErrInvalidVersion)
	}

	v, err := goversion.NewSemver(raw)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q: pre-release and metadata are not supported", ErrInvalidVersion, s)
	}

	segments := v.Segments64()
	if len(segments) != 3 {
		return Version{}, fmt.Errorf("%w: %q: expected at most 3 segments", ErrInvalidVersion, s)
	}
	for _, seg := range segments {
		if seg < 0 {
			return Version{}, fmt.Errorf("%w: %q: negative segment", ErrInvalidVersion, s)
		}
	}
	if uint64(segments[0]) > maxMajor {
		return Version{}, fmt.Errorf("%w: %q: major must not exceed %d", ErrInvalidVersion, s, uint64(maxMajor))
	}
	if segments[1] >= segmentLimit || segments[2] >= segmentLimit {
		return Version{}, fmt.Errorf("%w: %q: minor and patch must be below %d", ErrInvalidVersion, s, segmentLimit)
	}

	return Version{
		major: uint64(segments[0]),
		minor: uint64(segments[1]),
		patch: uint64(segments[2]),
	}, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Num returns the canonical numeric form used for ordering.
func (v Version) Num() uint64 {
	return v.major*majorWeight + v.minor*minorWeight + v.patch
}

// String returns the canonical MAJOR.MINOR.PATCH form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare returns -1, 0 or +1 depending on whether a is lower than, equal to
// or greater than b.
func Compare(a, b Version) int {
	an, bn := a.Num(), b.Num()
	switch {
	case an < bn:
		return -1
	case an > bn:
		return 1
	default:
		return 0
	}
}

// GreaterThan reports whether v orders after o.
func (v Version) GreaterThan(o Version) bool {
	return Compare(v, o) > 0
}
