package targets

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sambabib/portability-analyzer/pkg/model"
)

// ErrUnknownTarget is returned when a target name carries no version and the
// catalog does not know the framework.
var ErrUnknownTarget = errors.New("unknown target")

// Mapper expands target aliases ("NetCore" -> ".NET Core, Version=3.1", ...).
// Alias lookup ignores case.
type Mapper struct {
	aliases map[string][]string
	names   []string
}

// NewMapper builds a mapper from alias -> target names.
func NewMapper(aliases map[string][]string) *Mapper {
	m := &Mapper{aliases: make(map[string][]string, len(aliases))}
	for alias, names := range aliases {
		key := strings.ToLower(strings.TrimSpace(alias))
		if _, dup := m.aliases[key]; !dup {
			m.names = append(m.names, alias)
		}
		m.aliases[key] = append(m.aliases[key], names...)
	}
	slices.SortFunc(m.names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return m
}

// Names returns the target names an alias stands for. A name that is not an
// alias maps to itself.
func (m *Mapper) Names(alias string) []string {
	if m != nil {
		if names, ok := m.aliases[strings.ToLower(strings.TrimSpace(alias))]; ok {
			return names
		}
	}
	return []string{alias}
}

// Aliases returns the configured alias names, sorted.
func (m *Mapper) Aliases() []string {
	if m == nil {
		return nil
	}
	return m.names
}

// LatestTargetLookup finds the newest known version of a framework.
type LatestTargetLookup interface {
	LatestTarget(identifier string) (model.Target, bool)
}

// NameParser turns target names such as ".NET Framework, Version=4.5" or
// ".NET Core" into explicit targets. Names without a version resolve to the
// framework's latest version in the catalog.
type NameParser struct {
	catalog  LatestTargetLookup
	defaults []string
}

// NewNameParser creates a parser. defaults are used when no target is
// requested.
func NewNameParser(catalog LatestTargetLookup, defaults []string) *NameParser {
	return &NameParser{catalog: catalog, defaults: defaults}
}

// MapTargetsToExplicitVersions parses every name. An empty list selects the
// default targets.
func (p *NameParser) MapTargetsToExplicitVersions(names []string) ([]model.Target, error) {
	if len(names) == 0 {
		names = p.defaults
	}
	out := make([]model.Target, 0, len(names))
	for _, name := range names {
		t, err := p.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Parse parses a single target name. Accepted forms:
//
//	.NET Framework, Version=4.5
//	.NET Framework,Version=v4.5,Profile=Client
//	.NET Core
func (p *NameParser) Parse(name string) (model.Target, error) {
	parts := strings.Split(name, ",")
	identifier := strings.TrimSpace(parts[0])
	if identifier == "" {
		return model.Target{}, fmt.Errorf("%w: empty target name", ErrUnknownTarget)
	}

	var version, profile string
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return model.Target{}, fmt.Errorf("invalid target component %q in %q", strings.TrimSpace(part), name)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "version":
			version = strings.TrimSpace(value)
		case "profile":
			profile = strings.TrimSpace(value)
		default:
			return model.Target{}, fmt.Errorf("invalid target component %q in %q", strings.TrimSpace(part), name)
		}
	}

	var latest model.Target
	known := false
	if p.catalog != nil {
		latest, known = p.catalog.LatestTarget(identifier)
	}
	if known {
		identifier = latest.Identifier
	}

	if version == "" {
		if !known {
			return model.Target{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
		}
		latest.Profile = profile
		return latest, nil
	}

	v, err := model.ParseVersion(version)
	if err != nil {
		return model.Target{}, fmt.Errorf("target %q: %w", name, err)
	}
	return model.Target{Identifier: identifier, Version: v, Profile: profile}, nil
}
