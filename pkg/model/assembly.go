package model

import (
	"strings"
)

// AssemblyInfo identifies a physical input assembly. It is a plain value and is
// safe to use as a map key.
type AssemblyInfo struct {
	AssemblyIdentity       string `json:"assemblyIdentity"`
	FileVersion            string `json:"fileVersion,omitempty"`
	Location               string `json:"location,omitempty"`
	TargetFrameworkMoniker string `json:"targetFrameworkMoniker,omitempty"`
	IsExplicitlySpecified  bool   `json:"isExplicitlySpecified"`
}

func (a AssemblyInfo) String() string {
	return a.AssemblyIdentity
}

// IgnoreAssemblyInfo names a user assembly that breaking-change analysis should
// skip. An empty TargetsIgnored list means every target.
type IgnoreAssemblyInfo struct {
	AssemblyIdentity string   `json:"assemblyIdentity" yaml:"assemblyIdentity" mapstructure:"assemblyIdentity"`
	TargetsIgnored   []string `json:"targetsIgnored,omitempty" yaml:"targetsIgnored" mapstructure:"targetsIgnored"`
}

// IdentityWithoutCultureAndVersion drops the Version= and Culture= components of
// an assembly identity string so that different builds of the same assembly
// classify identically.
//
//	"Foo, Version=1.0.0.0, Culture=neutral, PublicKeyToken=abc" -> "Foo, PublicKeyToken=abc"
func IdentityWithoutCultureAndVersion(identity string) string {
	parts := strings.Split(identity, ",")
	kept := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i > 0 {
			key, _, _ := strings.Cut(part, "=")
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "version", "culture":
				continue
			}
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, ", ")
}

// IdentityComponent returns the value of a named component of an assembly
// identity (for example "PublicKeyToken"), or "" when it is absent.
func IdentityComponent(identity, name string) string {
	parts := strings.Split(identity, ",")
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// AssemblyName returns the simple name of an assembly identity.
func AssemblyName(identity string) string {
	name, _, _ := strings.Cut(identity, ",")
	return strings.TrimSpace(name)
}
