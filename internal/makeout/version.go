package makeout

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// ErrUnknownBanner is returned when a version banner is not GNU make's.
var ErrUnknownBanner = errors.New("not a GNU make version banner")

// MinTraceVersion is the oldest GNU make whose --debug=v output Classify understands.
var MinTraceVersion = semver.MustParse("3.81")

var bannerRe = regexp.MustCompile(`^GNU Make (\d+\.\d+(?:\.\d+)?)`)

// ParseVersion extracts the version from the first line of `make --version`.
func ParseVersion(banner string) (*semver.Version, error) {
	m := bannerRe.FindStringSubmatch(banner)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBanner, banner)
	}

	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing make version %q: %w", m[1], err)
	}

	return v, nil
}

// SupportsTrace reports whether v emits the trace phrasing Classify expects.
func SupportsTrace(v *semver.Version) bool {
	return v != nil && !v.LessThan(MinTraceVersion)
}
