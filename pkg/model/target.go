package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// NetFrameworkIdentifier is the framework identifier breaking changes are
// recorded against.
const NetFrameworkIdentifier = ".NET Framework"

// Target is a framework identifier at an explicit version, e.g.
// ".NET Framework, Version=4.5".
type Target struct {
	Identifier string
	Version    *semver.Version
	Profile    string
}

// NewTarget builds a Target from an identifier and a version string.
func NewTarget(identifier, version string) (Target, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return Target{}, err
	}
	return Target{Identifier: identifier, Version: v}, nil
}

// FullName returns the canonical "<identifier>,Version=v<version>" form.
func (t Target) FullName() string {
	name := fmt.Sprintf("%s,Version=v%s", t.Identifier, FormatVersion(t.Version))
	if t.Profile != "" {
		name += ",Profile=" + t.Profile
	}
	return name
}

// String returns the display form used in reports.
func (t Target) String() string {
	s := fmt.Sprintf("%s, Version=%s", t.Identifier, FormatVersion(t.Version))
	if t.Profile != "" {
		s += ", Profile=" + t.Profile
	}
	return s
}

// Matches reports whether name refers to this target, comparing against both
// the full and the display name without regard to case.
func (t Target) Matches(name string) bool {
	name = strings.TrimSpace(name)
	return strings.EqualFold(name, t.FullName()) || strings.EqualFold(name, t.String())
}

type targetJSON struct {
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
	Profile    string `json:"profile,omitempty"`
	FullName   string `json:"fullName"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	return json.Marshal(targetJSON{
		Identifier: t.Identifier,
		Version:    FormatVersion(t.Version),
		Profile:    t.Profile,
		FullName:   t.FullName(),
	})
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var raw targetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseVersion(raw.Version)
	if err != nil {
		return err
	}
	*t = Target{Identifier: raw.Identifier, Version: v, Profile: raw.Profile}
	return nil
}
