package model

import (
	"encoding/json"
	"fmt"
)

// DependencyGraph maps each referenced member to the set of assemblies that
// reference it. Members are keyed by MemberKey and kept in insertion order so
// that analysis output is deterministic.
type DependencyGraph struct {
	index   map[MemberKey]int
	entries []dependencyEntry
}

type dependencyEntry struct {
	member  MemberInfo
	callers []AssemblyInfo
	seen    map[AssemblyInfo]struct{}
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{index: make(map[MemberKey]int)}
}

// Add records that each caller references member. Adding a member that is
// already present only extends its caller set.
func (g *DependencyGraph) Add(member MemberInfo, callers ...AssemblyInfo) {
	if g.index == nil {
		g.index = make(map[MemberKey]int)
	}
	key := member.Key()
	i, ok := g.index[key]
	if !ok {
		i = len(g.entries)
		g.index[key] = i
		g.entries = append(g.entries, dependencyEntry{
			member: MemberInfo{
				MemberDocID:               member.MemberDocID,
				TypeDocID:                 member.TypeDocID,
				DefinedInAssemblyIdentity: member.DefinedInAssemblyIdentity,
			},
			seen: make(map[AssemblyInfo]struct{}),
		})
	}
	e := &g.entries[i]
	for _, c := range callers {
		if _, dup := e.seen[c]; dup {
			continue
		}
		e.seen[c] = struct{}{}
		e.callers = append(e.callers, c)
	}
}

// Len returns the number of distinct members. A nil graph is empty.
func (g *DependencyGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Members returns the members in insertion order.
func (g *DependencyGraph) Members() []MemberInfo {
	if g == nil {
		return nil
	}
	out := make([]MemberInfo, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.member
	}
	return out
}

// Lookup returns the member stored under key.
func (g *DependencyGraph) Lookup(key MemberKey) (MemberInfo, bool) {
	if g == nil {
		return MemberInfo{}, false
	}
	i, ok := g.index[key]
	if !ok {
		return MemberInfo{}, false
	}
	return g.entries[i].member, true
}

// Callers returns the assemblies that reference the member stored under key.
// The returned slice must not be modified.
func (g *DependencyGraph) Callers(key MemberKey) []AssemblyInfo {
	if g == nil {
		return nil
	}
	i, ok := g.index[key]
	if !ok {
		return nil
	}
	return g.entries[i].callers
}

type dependencyJSON struct {
	MemberDocID               string         `json:"memberDocId"`
	TypeDocID                 string         `json:"typeDocId,omitempty"`
	DefinedInAssemblyIdentity string         `json:"definedInAssemblyIdentity"`
	Callers                   []AssemblyInfo `json:"callers"`
}

func (g *DependencyGraph) MarshalJSON() ([]byte, error) {
	out := make([]dependencyJSON, 0, g.Len())
	if g != nil {
		for _, e := range g.entries {
			out = append(out, dependencyJSON{
				MemberDocID:               e.member.MemberDocID,
				TypeDocID:                 e.member.TypeDocID,
				DefinedInAssemblyIdentity: e.member.DefinedInAssemblyIdentity,
				Callers:                   e.callers,
			})
		}
	}
	return json.Marshal(out)
}

func (g *DependencyGraph) UnmarshalJSON(data []byte) error {
	var raw []dependencyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = DependencyGraph{index: make(map[MemberKey]int, len(raw))}
	for i, d := range raw {
		if d.MemberDocID == "" {
			return fmt.Errorf("dependency %d: memberDocId is required", i)
		}
		if len(d.Callers) == 0 {
			return fmt.Errorf("dependency %s: at least one caller is required", d.MemberDocID)
		}
		g.Add(MemberInfo{
			MemberDocID:               d.MemberDocID,
			TypeDocID:                 d.TypeDocID,
			DefinedInAssemblyIdentity: d.DefinedInAssemblyIdentity,
		}, d.Callers...)
	}
	return nil
}
