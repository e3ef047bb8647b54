package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/sambabib/portability-analyzer/pkg/model"
)

// ErrBuilderConsumed is returned by writes to a ResultBuilder after Build.
var ErrBuilderConsumed = errors.New("result builder already built")

// ResultBuilder accumulates the findings of one analysis request. Targets,
// submission id and flags are fixed at construction. Writes are serialized,
// so several goroutines may feed one builder. Build consumes the builder.
type ResultBuilder struct {
	mu           sync.Mutex
	built        bool
	targets      []model.Target
	submissionID string
	flags        model.RequestFlags

	// types holds analyzed type-level dependencies by doc-id; their own
	// status wins over a member's when the type record is created.
	types        map[string]model.MemberInfo
	missingTypes map[string]*MissingTypeInfo
	unresolved   map[string][]string
	withErrors   map[string]struct{}
	usage        []*AssemblyUsageInfo
}

// NewResultBuilder starts an empty result. typeDependencies are analyzed type
// references (doc-ids starting with "T:").
func NewResultBuilder(targets []model.Target, typeDependencies []model.MemberInfo, submissionID string, flags model.RequestFlags) *ResultBuilder {
	b := &ResultBuilder{
		targets:      slices.Clone(targets),
		submissionID: submissionID,
		flags:        flags,
		types:        make(map[string]model.MemberInfo, len(typeDependencies)),
		missingTypes: make(map[string]*MissingTypeInfo),
		unresolved:   make(map[string][]string),
		withErrors:   make(map[string]struct{}),
	}
	for _, t := range typeDependencies {
		b.types[t.MemberDocID] = t
	}
	return b
}

// AddMissingDependency records that source uses an unsupported dependency. The
// containing type record is reused when one with the same name exists. Methods,
// fields and properties become members of the type record; anything else marks
// the type itself as missing.
func (b *ResultBuilder) AddMissingDependency(source model.AssemblyInfo, dependency model.MemberInfo, recommendedChanges string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilderConsumed
	}

	typeDocID := dependency.ContainingTypeDocID()
	name, err := typeName(typeDocID)
	if err != nil {
		return fmt.Errorf("missing dependency %s: %w", dependency.MemberDocID, err)
	}

	typeInfo, ok := b.missingTypes[name]
	if ok {
		typeInfo.incrementUsage(source)
	} else {
		status := dependency.TargetStatus
		if t, found := b.types[typeDocID]; found {
			status = t.TargetStatus
		}
		typeInfo, err = NewMissingTypeInfo(source, typeDocID, status, recommendedChanges)
		if err != nil {
			return fmt.Errorf("missing dependency %s: %w", dependency.MemberDocID, err)
		}
		b.missingTypes[name] = typeInfo
	}

	if model.IsMemberDocID(dependency.MemberDocID) {
		member := NewMissingMemberInfo(source, dependency.MemberDocID, dependency.TargetStatus, recommendedChanges)
		typeInfo.addMissingMember(member, source)
	} else {
		typeInfo.markAsMissing()
	}
	return nil
}

// AddUnresolvedUserAssembly records an assembly that was referenced but never
// supplied, with the assemblies that reference it.
func (b *ResultBuilder) AddUnresolvedUserAssembly(name string, referencedBy []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilderConsumed
	}
	b.unresolved[name] = append(b.unresolved[name], referencedBy...)
	return nil
}

// AddAssemblyWithError records an assembly whose dependencies could not be
// discovered.
func (b *ResultBuilder) AddAssemblyWithError(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilderConsumed
	}
	b.withErrors[name] = struct{}{}
	return nil
}

// SetAssemblyUsageInfo replaces the per-assembly usage snapshot.
func (b *ResultBuilder) SetAssemblyUsageInfo(usage []*AssemblyUsageInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return ErrBuilderConsumed
	}
	b.usage = slices.Clone(usage)
	return nil
}

// Build finalizes the result. The builder cannot be written to afterwards and
// a second Build returns nil.
func (b *ResultBuilder) Build() *Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil
	}
	b.built = true

	r := &Result{
		targets:      b.targets,
		submissionID: b.submissionID,
		flags:        b.flags,
		missingTypes: slices.Collect(maps.Values(b.missingTypes)),
		unresolved:   b.unresolved,
		withErrors:   slices.Sorted(maps.Keys(b.withErrors)),
		usage:        b.usage,
	}
	slices.SortFunc(r.missingTypes, func(a, c *MissingTypeInfo) int {
		return strings.Compare(a.typeName, c.typeName)
	})

	b.types, b.missingTypes, b.unresolved, b.withErrors, b.usage = nil, nil, nil, nil, nil
	return r
}

// Result is the read-only outcome of one analysis request.
type Result struct {
	targets      []model.Target
	submissionID string
	flags        model.RequestFlags
	missingTypes []*MissingTypeInfo
	unresolved   map[string][]string
	withErrors   []string
	usage        []*AssemblyUsageInfo
}

func (r *Result) Targets() []model.Target { return slices.Clone(r.targets) }
func (r *Result) SubmissionID() string { return r.submissionID }
func (r *Result) RequestFlags() model.RequestFlags { return r.flags }

// MissingTypes returns one record per unsupported type, sorted by type name.
func (r *Result) MissingTypes() []*MissingTypeInfo { return slices.Clone(r.missingTypes) }

// UnresolvedUserAssemblies maps each unresolved assembly to the assemblies that
// referenced it.
func (r *Result) UnresolvedUserAssemblies() map[string][]string {
	out := make(map[string][]string, len(r.unresolved))
	for k, v := range r.unresolved {
		out[k] = slices.Clone(v)
	}
	return out
}

// AssembliesWithErrors returns the assemblies that failed discovery, sorted.
func (r *Result) AssembliesWithErrors() []string { return slices.Clone(r.withErrors) }

// AssemblyUsageInfo returns the per-assembly usage snapshot.
func (r *Result) AssemblyUsageInfo() []*AssemblyUsageInfo { return slices.Clone(r.usage) }

func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SubmissionID             string               `json:"submissionId"`
		RequestFlags             string               `json:"requestFlags"`
		Targets                  []model.Target       `json:"targets"`
		MissingTypes             []*MissingTypeInfo   `json:"missingTypes"`
		UnresolvedUserAssemblies map[string][]string  `json:"unresolvedUserAssemblies"`
		AssembliesWithErrors     []string             `json:"assembliesWithErrors"`
		AssemblyUsageInfo        []*AssemblyUsageInfo `json:"assemblyUsageInfo,omitempty"`
	}{
		SubmissionID:             r.submissionID,
		RequestFlags:             r.flags.String(),
		Targets:                  r.targets,
		MissingTypes:             r.missingTypes,
		UnresolvedUserAssemblies: r.unresolved,
		AssembliesWithErrors:     r.withErrors,
		AssemblyUsageInfo:        r.usage,
	})
}
