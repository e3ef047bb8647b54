package analyzer

import (
	"context"
	"iter"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sambabib/portability-analyzer/pkg/logger"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Engine classifies dependencies against the catalog. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	catalog         ApiCatalog
	recommendations Recommendations
	workers         int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers bounds the number of members analyzed concurrently. Values below
// one keep the default of GOMAXPROCS.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine over the given catalog and recommendation store.
func NewEngine(catalog ApiCatalog, recommendations Recommendations, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:         catalog,
		recommendations: recommendations,
		workers:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// isFrameworkMember reports whether m is declared by a framework assembly and
// known to the catalog.
func (e *Engine) isFrameworkMember(m model.MemberInfo) bool {
	identity := model.IdentityWithoutCultureAndVersion(m.DefinedInAssemblyIdentity)
	return e.catalog.IsFrameworkAssembly(identity) && e.catalog.IsFrameworkMember(m.MemberDocID)
}

// FindMembersNotInTargets returns the framework members of deps that are
// missing on at least one target. Each result carries one TargetStatus entry
// per target, in the order of targets. Members are analyzed in parallel and
// returned in the graph's order. Empty deps or targets yield an empty result.
func (e *Engine) FindMembersNotInTargets(ctx context.Context, targets []model.Target, deps *model.DependencyGraph) ([]model.MemberInfo, error) {
	if deps.Len() == 0 || len(targets) == 0 {
		return []model.MemberInfo{}, nil
	}

	members := deps.Members()
	results := make([]*model.MemberInfo, len(members))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, m := range members {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.analyzeMember(m, targets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	missing := make([]model.MemberInfo, 0)
	for _, r := range results {
		if r != nil {
			missing = append(missing, *r)
		}
	}
	logger.Debugf("Engine: %d of %d members missing on %d targets", len(missing), len(members), len(targets))
	return missing, nil
}

// analyzeMember returns an annotated copy of m, or nil when m is not a
// framework member or is supported on every target.
func (e *Engine) analyzeMember(m model.MemberInfo, targets []model.Target) *model.MemberInfo {
	if !e.isFrameworkMember(m) {
		return nil
	}

	status := make([]*semver.Version, len(targets))
	supported := true
	for i, t := range targets {
		status[i] = e.introducedIn(m.MemberDocID, t)
		if status[i] == nil {
			supported = false
		}
	}
	if supported {
		return nil
	}

	out := m
	out.TargetStatus = status
	out.IsSupportedAcrossTargets = false
	out.RecommendedChanges = e.recommendations.RecommendedChanges(m.MemberDocID)
	out.SourceCompatibleChange = e.recommendations.SourceCompatibleChanges(m.MemberDocID)
	return &out
}

// introducedIn looks docID up on target, falling back to its source-compatible
// equivalent. nil means unsupported.
func (e *Engine) introducedIn(docID string, target model.Target) *semver.Version {
	if ok, v := e.catalog.IsMemberInTarget(docID, target); ok && v != nil {
		return v
	}
	if equivalent := e.catalog.SourceCompatibilityEquivalent(docID); equivalent != "" {
		if ok, v := e.catalog.IsMemberInTarget(equivalent, target); ok && v != nil {
			return v
		}
	}
	return nil
}

type breakingChangeOptions struct {
	frameworkVersions []*semver.Version
	skipped           map[string]struct{}
	suppressed        map[string]struct{}
	dropRetargeting   bool
}

// BreakingChangeOption narrows the breaking changes FindBreakingChanges yields.
type BreakingChangeOption func(*breakingChangeOptions)

// WithTargets keeps only breaking changes that affect one of the requested
// .NET Framework versions. Without a .NET Framework target nothing is dropped.
func WithTargets(targets []model.Target) BreakingChangeOption {
	return func(o *breakingChangeOptions) {
		for _, t := range targets {
			if strings.EqualFold(t.Identifier, model.NetFrameworkIdentifier) && t.Version != nil {
				o.frameworkVersions = append(o.frameworkVersions, t.Version)
			}
		}
	}
}

// WithSkippedAssemblies drops records whose calling assembly is listed.
func WithSkippedAssemblies(assemblies []model.AssemblyInfo) BreakingChangeOption {
	return func(o *breakingChangeOptions) {
		if o.skipped == nil {
			o.skipped = make(map[string]struct{}, len(assemblies))
		}
		for _, a := range assemblies {
			o.skipped[strings.ToLower(a.AssemblyIdentity)] = struct{}{}
		}
	}
}

// WithSuppressed drops breaking changes by ID, ignoring case.
func WithSuppressed(ids []string) BreakingChangeOption {
	return func(o *breakingChangeOptions) {
		if o.suppressed == nil {
			o.suppressed = make(map[string]struct{}, len(ids))
		}
		for _, id := range ids {
			o.suppressed[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
		}
	}
}

// WithRetargeting controls whether retargeting breaking changes are yielded.
func WithRetargeting(include bool) BreakingChangeOption {
	return func(o *breakingChangeOptions) {
		o.dropRetargeting = !include
	}
}

func (o *breakingChangeOptions) keep(b model.BreakingChange) bool {
	if b.IsRetargeting && o.dropRetargeting {
		return false
	}
	if _, ok := o.suppressed[strings.ToLower(b.ID)]; ok {
		return false
	}
	if len(o.frameworkVersions) == 0 {
		return true
	}
	for _, v := range o.frameworkVersions {
		if b.AppliesTo(v) {
			return true
		}
	}
	return false
}

func (o *breakingChangeOptions) skips(a model.AssemblyInfo) bool {
	_, ok := o.skipped[strings.ToLower(a.AssemblyIdentity)]
	return ok
}

// FindBreakingChanges lazily yields one record per (breaking change, calling
// assembly) for every framework member of deps. Breaking changes are distinct
// by ID per member. The graph is read when the sequence is iterated.
func (e *Engine) FindBreakingChanges(deps *model.DependencyGraph, opts ...BreakingChangeOption) iter.Seq[model.BreakingChangeDependency] {
	var o breakingChangeOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(yield func(model.BreakingChangeDependency) bool) {
		for _, m := range deps.Members() {
			if !e.isFrameworkMember(m) {
				continue
			}
			seen := make(map[string]struct{})
			for _, b := range e.recommendations.BreakingChanges(m.MemberDocID) {
				if _, dup := seen[b.ID]; dup {
					continue
				}
				seen[b.ID] = struct{}{}
				if !o.keep(b) {
					continue
				}
				for _, caller := range deps.Callers(m.Key()) {
					if o.skips(caller) {
						continue
					}
					if !yield(model.BreakingChangeDependency{Break: b, DependantAssembly: caller, Member: m}) {
						return
					}
				}
			}
		}
	}
}

// FindUnreferencedAssemblies returns the unresolved assemblies that are neither
// framework assemblies nor among the assemblies the user supplied (compared
// ignoring case). Input order is kept.
func (e *Engine) FindUnreferencedAssemblies(unresolved []string, specified []model.AssemblyInfo) []string {
	given := make(map[string]struct{}, len(specified))
	for _, a := range specified {
		given[strings.ToLower(a.AssemblyIdentity)] = struct{}{}
	}

	out := make([]string, 0, len(unresolved))
	for _, identity := range unresolved {
		if _, ok := given[strings.ToLower(identity)]; ok {
			continue
		}
		if e.catalog.IsFrameworkAssembly(model.IdentityWithoutCultureAndVersion(identity)) {
			continue
		}
		out = append(out, identity)
	}
	return out
}

// FindBreakingChangeSkippedAssemblies returns the user assemblies that an
// ignore entry excludes from breaking-change analysis for every requested
// target. An entry without TargetsIgnored covers all targets.
func (e *Engine) FindBreakingChangeSkippedAssemblies(targets []model.Target, userAssemblies []model.AssemblyInfo, ignore []model.IgnoreAssemblyInfo) []model.AssemblyInfo {
	out := make([]model.AssemblyInfo, 0)
	if len(ignore) == 0 {
		return out
	}

	for _, a := range userAssemblies {
		for _, entry := range ignore {
			if !strings.EqualFold(entry.AssemblyIdentity, a.AssemblyIdentity) {
				continue
			}
			if ignoresAllTargets(entry.TargetsIgnored, targets) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func ignoresAllTargets(ignored []string, targets []model.Target) bool {
	if len(ignored) == 0 {
		return true
	}
	for _, t := range targets {
		covered := false
		for _, name := range ignored {
			if t.Matches(name) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
