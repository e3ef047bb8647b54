package analyzer

import (
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sambabib/portability-analyzer/pkg/model"
)

// ApiCatalog answers framework membership and availability questions. Lookups
// are total: unknown doc-ids yield false or "".
type ApiCatalog interface {
	IsFrameworkAssembly(assemblyIdentity string) bool
	IsFrameworkMember(docID string) bool
	// IsMemberInTarget reports whether docID exists on target and the version
	// it was introduced in.
	IsMemberInTarget(docID string, target model.Target) (bool, *semver.Version)
	// SourceCompatibilityEquivalent returns a doc-id that can replace docID at
	// the source level, or "".
	SourceCompatibilityEquivalent(docID string) string
}

// Recommendations maps doc-ids to replacement advice and breaking changes.
type Recommendations interface {
	RecommendedChanges(docID string) string
	SourceCompatibleChanges(docID string) string
	BreakingChanges(docID string) []model.BreakingChange
}

// TargetMapper expands a target alias into target names.
type TargetMapper interface {
	Names(alias string) []string
}

// TargetNameParser resolves target names to explicit versions.
type TargetNameParser interface {
	MapTargetsToExplicitVersions(names []string) ([]model.Target, error)
}

// CatalogInfo is implemented by catalogs that know when their data was built.
type CatalogInfo interface {
	LastModified() time.Time
}
