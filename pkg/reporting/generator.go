package reporting

import (
	"slices"
	"strings"

	"github.com/sambabib/portability-analyzer/pkg/logger"
	"github.com/sambabib/portability-analyzer/pkg/model"
)

// ComputeReport folds the outcome of an analysis into a Result: unresolved and
// failed assemblies, one missing-dependency entry per (member, calling
// assembly), and per-assembly usage counters for every target.
func ComputeReport(
	targets []model.Target,
	submissionID string,
	flags model.RequestFlags,
	allDependencies *model.DependencyGraph,
	missingDependencies []model.MemberInfo,
	unresolvedAssemblies map[string][]string,
	unresolvedUserAssemblies []string,
	assembliesWithErrors []string,
) (*Result, error) {
	var typeDependencies []model.MemberInfo
	missing := make(map[model.MemberKey]model.MemberInfo, len(missingDependencies))
	for _, m := range missingDependencies {
		missing[m.Key()] = m
		if model.DocIDKind(m.MemberDocID) == 'T' && m.TypeDocID == "" {
			typeDependencies = append(typeDependencies, m)
		}
	}

	b := NewResultBuilder(targets, typeDependencies, submissionID, flags)

	for _, name := range unresolvedUserAssemblies {
		if err := b.AddUnresolvedUserAssembly(name, unresolvedAssemblies[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range assembliesWithErrors {
		if err := b.AddAssemblyWithError(name); err != nil {
			return nil, err
		}
	}

	for _, m := range missingDependencies {
		for _, caller := range allDependencies.Callers(m.Key()) {
			if err := b.AddMissingDependency(caller, m, m.RecommendedChanges); err != nil {
				return nil, err
			}
		}
	}

	if err := b.SetAssemblyUsageInfo(assemblyUsage(targets, allDependencies, missing)); err != nil {
		return nil, err
	}

	logger.Debugf("Reporting: %d missing dependencies folded for submission %s", len(missingDependencies), submissionID)
	return b.Build(), nil
}

// assemblyUsage counts, for every calling assembly and target, the calls to
// APIs that are and are not available on that target.
func assemblyUsage(targets []model.Target, deps *model.DependencyGraph, missing map[model.MemberKey]model.MemberInfo) []*AssemblyUsageInfo {
	perAssembly := make(map[model.AssemblyInfo]*AssemblyUsageInfo)
	for _, dep := range deps.Members() {
		m, isMissing := missing[dep.Key()]
		for _, caller := range deps.Callers(dep.Key()) {
			usage, ok := perAssembly[caller]
			if !ok {
				usage = NewAssemblyUsageInfo(caller, len(targets))
				perAssembly[caller] = usage
			}
			for i := range targets {
				if isMissing && i < len(m.TargetStatus) && m.TargetStatus[i] == nil {
					usage.UsageData[i].IncrementCallsToUnavailableAPIs()
				} else {
					usage.UsageData[i].IncrementCallsToAvailableAPIs()
				}
			}
		}
	}

	out := make([]*AssemblyUsageInfo, 0, len(perAssembly))
	for _, u := range perAssembly {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b *AssemblyUsageInfo) int {
		return strings.Compare(a.SourceAssembly.AssemblyIdentity, b.SourceAssembly.AssemblyIdentity)
	})
	return out
}
