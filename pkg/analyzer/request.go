package analyzer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sambabib/portability-analyzer/pkg/logger"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/sambabib/portability-analyzer/pkg/reporting"
)

// AnalyzeResponse is the outcome of one analysis request.
type AnalyzeResponse struct {
	ApplicationName    string         `json:"applicationName"`
	SubmissionID       string         `json:"submissionId"`
	CatalogLastUpdated time.Time      `json:"catalogLastUpdated"`
	Targets            []model.Target `json:"targets"`

	MissingDependencies      []model.MemberInfo `json:"missingDependencies"`
	UnresolvedUserAssemblies []string           `json:"unresolvedUserAssemblies"`
	ReportingResult          *reporting.Result  `json:"reportingResult"`

	BreakingChanges                 []model.BreakingChangeDependency `json:"breakingChanges"`
	BreakingChangeSkippedAssemblies []model.AssemblyInfo             `json:"breakingChangeSkippedAssemblies"`
}

// RequestAnalyzer runs a complete analysis request: target resolution, the
// engine passes selected by the request flags, and report aggregation.
type RequestAnalyzer struct {
	engine      *Engine
	mapper      TargetMapper
	parser      TargetNameParser
	catalogInfo CatalogInfo
}

// RequestAnalyzerOption configures a RequestAnalyzer.
type RequestAnalyzerOption func(*RequestAnalyzer)

// WithCatalogInfo sets the source of AnalyzeResponse.CatalogLastUpdated.
func WithCatalogInfo(info CatalogInfo) RequestAnalyzerOption {
	return func(r *RequestAnalyzer) {
		r.catalogInfo = info
	}
}

// NewRequestAnalyzer creates a request analyzer. A nil mapper leaves target
// names unexpanded.
func NewRequestAnalyzer(engine *Engine, mapper TargetMapper, parser TargetNameParser, opts ...RequestAnalyzerOption) *RequestAnalyzer {
	r := &RequestAnalyzer{engine: engine, mapper: mapper, parser: parser}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// effectiveFlags keeps old clients working: a request without analysis flags
// (None, or only NoTelemetry) asks for the non-portable API report.
func effectiveFlags(flags model.RequestFlags) model.RequestFlags {
	if flags == model.None || flags == model.NoTelemetry {
		return flags | model.ShowNonPortableApis
	}
	return flags
}

// AnalyzeRequest analyzes request. An empty submissionID is replaced by a new
// random id.
func (r *RequestAnalyzer) AnalyzeRequest(ctx context.Context, request *model.AnalyzeRequest, submissionID string) (*AnalyzeResponse, error) {
	if request == nil {
		return nil, errors.New("analyze request is nil")
	}
	if submissionID == "" {
		submissionID = uuid.New().String()
	}

	targets, err := r.resolveTargets(request.Targets)
	if err != nil {
		return nil, err
	}
	flags := effectiveFlags(request.RequestFlags)

	log := logger.WithFields(map[string]interface{}{
		"submission": submissionID,
		"targets":    len(targets),
		"flags":      flags.String(),
	})
	log.Debugf("Analyzing %d dependencies of %q", request.Dependencies.Len(), request.ApplicationName)

	unresolvedUser := r.engine.FindUnreferencedAssemblies(request.UnresolvedAssemblyNames(), request.UserAssemblies)

	missing := []model.MemberInfo{}
	if flags.Has(model.ShowNonPortableApis) {
		missing, err = r.engine.FindMembersNotInTargets(ctx, targets, request.Dependencies)
		if err != nil {
			return nil, fmt.Errorf("error finding members not in targets: %w", err)
		}
	}

	skipped := []model.AssemblyInfo{}
	breaks := []model.BreakingChangeDependency{}
	if flags.Has(model.ShowBreakingChanges) {
		skipped = r.engine.FindBreakingChangeSkippedAssemblies(targets, request.UserAssemblies, request.AssembliesToIgnore)
		for b := range r.engine.FindBreakingChanges(request.Dependencies,
			WithTargets(targets),
			WithSkippedAssemblies(skipped),
			WithSuppressed(request.BreakingChangesToSuppress),
			WithRetargeting(flags.Has(model.ShowRetargettingIssues)),
		) {
			breaks = append(breaks, b)
		}
	}

	result, err := reporting.ComputeReport(
		targets,
		submissionID,
		flags,
		request.Dependencies,
		missing,
		request.UnresolvedAssembliesDictionary,
		unresolvedUser,
		request.AssembliesWithErrors,
	)
	if err != nil {
		return nil, fmt.Errorf("error computing report: %w", err)
	}

	resp := &AnalyzeResponse{
		ApplicationName:                 request.ApplicationName,
		SubmissionID:                    submissionID,
		Targets:                         targets,
		MissingDependencies:             missing,
		UnresolvedUserAssemblies:        unresolvedUser,
		ReportingResult:                 result,
		BreakingChanges:                 breaks,
		BreakingChangeSkippedAssemblies: skipped,
	}
	if r.catalogInfo != nil {
		resp.CatalogLastUpdated = r.catalogInfo.LastModified()
	}

	log.Debugf("Analysis finished: %d missing members, %d breaking changes, %d unresolved assemblies",
		len(missing), len(breaks), len(unresolvedUser))
	return resp, nil
}

// resolveTargets expands aliases, drops duplicate names, maps the names to
// explicit versions and sorts the targets by full name ignoring case.
func (r *RequestAnalyzer) resolveTargets(requested []string) ([]model.Target, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, alias := range requested {
		expanded := []string{alias}
		if r.mapper != nil {
			expanded = r.mapper.Names(alias)
		}
		for _, name := range expanded {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, name)
		}
	}

	targets, err := r.parser.MapTargetsToExplicitVersions(names)
	if err != nil {
		return nil, fmt.Errorf("error resolving targets: %w", err)
	}

	sorted := slices.Clone(targets)
	slices.SortStableFunc(sorted, func(a, b model.Target) int {
		return strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
	})
	sorted = slices.CompactFunc(sorted, func(a, b model.Target) bool {
		return strings.EqualFold(a.FullName(), b.FullName())
	})
	return sorted, nil
}
