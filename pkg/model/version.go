package model

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a framework version such as "4.5", "v4.6.2" or
// "4.0.0.0". Framework versions never use more than three significant
// components, so a fourth component is dropped when it is zero.
func ParseVersion(s string) (*semver.Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(s, ".")
	if len(parts) == 4 {
		if parts[3] != "0" {
			return nil, fmt.Errorf("invalid framework version %q: revision component is not supported", s)
		}
		s = strings.Join(parts[:3], ".")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid framework version %q: %w", s, err)
	}
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for
// tests and static tables.
func MustParseVersion(s string) *semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatVersion renders a version the way .NET does: major.minor, plus the
// patch component when it is non-zero. A nil version renders as "".
func FormatVersion(v *semver.Version) string {
	if v == nil {
		return ""
	}
	if v.Patch() == 0 {
		return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
	}
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}
