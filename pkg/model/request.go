package model

import (
	"slices"
)

// AnalyzeRequest is the input of a portability analysis: the dependency facts
// extracted from the user's assemblies plus the targets to check them against.
type AnalyzeRequest struct {
	ApplicationName string   `json:"applicationName"`
	Targets         []string `json:"targets"`

	Dependencies         *DependencyGraph `json:"dependencies"`
	UserAssemblies       []AssemblyInfo   `json:"userAssemblies"`
	AssembliesWithErrors []string         `json:"assembliesWithErrors,omitempty"`

	// UnresolvedAssembliesDictionary maps an unresolved assembly to the
	// assemblies that reference it. When present it takes precedence over
	// UnresolvedAssemblies.
	UnresolvedAssemblies           []string            `json:"unresolvedAssemblies,omitempty"`
	UnresolvedAssembliesDictionary map[string][]string `json:"unresolvedAssembliesDictionary,omitempty"`

	AssembliesToIgnore        []IgnoreAssemblyInfo `json:"assembliesToIgnore,omitempty"`
	BreakingChangesToSuppress []string             `json:"breakingChangesToSuppress,omitempty"`

	RequestFlags RequestFlags `json:"requestFlags"`
}

// UnresolvedAssemblyNames returns the unresolved assembly identities of the
// request, preferring the dictionary form. Dictionary keys are returned sorted.
func (r *AnalyzeRequest) UnresolvedAssemblyNames() []string {
	if r.UnresolvedAssembliesDictionary == nil {
		return r.UnresolvedAssemblies
	}
	names := make([]string, 0, len(r.UnresolvedAssembliesDictionary))
	for name := range r.UnresolvedAssembliesDictionary {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
