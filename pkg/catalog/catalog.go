package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sambabib/portability-analyzer/pkg/model"
)

// File is the on-disk catalog document.
type File struct {
	LastModified             time.Time             `yaml:"lastModified"`
	FrameworkAssemblies      []string              `yaml:"frameworkAssemblies"`
	FrameworkPublicKeyTokens []string              `yaml:"frameworkPublicKeyTokens"`
	Targets                  []TargetEntry         `yaml:"targets"`
	APIs                     []APIEntry            `yaml:"apis"`
	BreakingChanges          []BreakingChangeEntry `yaml:"breakingChanges"`
}

// TargetEntry lists the released versions of one framework.
type TargetEntry struct {
	Identifier string   `yaml:"identifier"`
	Versions   []string `yaml:"versions"`
}

// APIEntry describes one framework API. Targets maps a framework identifier to
// the version the API was introduced in.
type APIEntry struct {
	DocID                  string            `yaml:"docId"`
	Targets                map[string]string `yaml:"targets"`
	SourceEquivalent       string            `yaml:"sourceEquivalent"`
	RecommendedChanges     string            `yaml:"recommendedChanges"`
	SourceCompatibleChange string            `yaml:"sourceCompatibleChange"`
}

// BreakingChangeEntry is the on-disk form of a breaking change.
type BreakingChangeEntry struct {
	ID             string   `yaml:"id"`
	Title          string   `yaml:"title"`
	Details        string   `yaml:"details"`
	Suggestion     string   `yaml:"suggestion"`
	Link           string   `yaml:"link"`
	ApplicableAPIs []string `yaml:"applicableApis"`
	VersionBroken  string   `yaml:"versionBroken"`
	VersionFixed   string   `yaml:"versionFixed"`
	IsRetargeting  bool     `yaml:"isRetargeting"`
	IsBuildTime    bool     `yaml:"isBuildTime"`
	IsQuirked      bool     `yaml:"isQuirked"`
	ImpactScope    string   `yaml:"impactScope"`
	Categories     []string `yaml:"categories"`
}

type api struct {
	introduced             map[string]*semver.Version
	sourceEquivalent       string
	recommendedChanges     string
	sourceCompatibleChange string
}

type framework struct {
	identifier string
	versions   []*semver.Version // ascending
}

// Catalog answers framework membership, target support, recommendation and
// breaking change queries. It is read-only after construction and safe for
// concurrent use.
type Catalog struct {
	lastModified        time.Time
	frameworkAssemblies map[string]struct{}
	frameworkTokens     map[string]struct{}
	frameworks          map[string]*framework
	frameworkOrder      []string
	apis                map[string]*api
	breaking            map[string][]model.BreakingChange
}

// New indexes a catalog document.
func New(f *File) (*Catalog, error) {
	c := &Catalog{
		lastModified:        f.LastModified,
		frameworkAssemblies: make(map[string]struct{}, len(f.FrameworkAssemblies)),
		frameworkTokens:     make(map[string]struct{}, len(f.FrameworkPublicKeyTokens)),
		frameworks:          make(map[string]*framework, len(f.Targets)),
		apis:                make(map[string]*api, len(f.APIs)),
		breaking:            make(map[string][]model.BreakingChange),
	}

	for _, a := range f.FrameworkAssemblies {
		c.frameworkAssemblies[assemblyKey(a)] = struct{}{}
	}
	for _, tok := range f.FrameworkPublicKeyTokens {
		c.frameworkTokens[strings.ToLower(strings.TrimSpace(tok))] = struct{}{}
	}

	for _, t := range f.Targets {
		key := strings.ToLower(t.Identifier)
		fw, ok := c.frameworks[key]
		if !ok {
			fw = &framework{identifier: t.Identifier}
			c.frameworks[key] = fw
			c.frameworkOrder = append(c.frameworkOrder, key)
		}
		for _, vs := range t.Versions {
			v, err := model.ParseVersion(vs)
			if err != nil {
				return nil, fmt.Errorf("target %s: %w", t.Identifier, err)
			}
			fw.versions = append(fw.versions, v)
		}
		slices.SortFunc(fw.versions, func(a, b *semver.Version) int { return a.Compare(b) })
	}

	for _, e := range f.APIs {
		if e.DocID == "" {
			return nil, fmt.Errorf("api entry without docId")
		}
		a := &api{
			introduced:             make(map[string]*semver.Version, len(e.Targets)),
			sourceEquivalent:       e.SourceEquivalent,
			recommendedChanges:     e.RecommendedChanges,
			sourceCompatibleChange: e.SourceCompatibleChange,
		}
		for identifier, vs := range e.Targets {
			v, err := model.ParseVersion(vs)
			if err != nil {
				return nil, fmt.Errorf("api %s: %w", e.DocID, err)
			}
			a.introduced[strings.ToLower(identifier)] = v
		}
		c.apis[e.DocID] = a
	}

	for _, e := range f.BreakingChanges {
		b, err := e.toModel()
		if err != nil {
			return nil, fmt.Errorf("breaking change %s: %w", e.ID, err)
		}
		for _, docID := range e.ApplicableAPIs {
			c.breaking[docID] = append(c.breaking[docID], b)
		}
	}

	return c, nil
}

func (e BreakingChangeEntry) toModel() (model.BreakingChange, error) {
	b := model.BreakingChange{
		ID:             e.ID,
		Title:          e.Title,
		Details:        e.Details,
		Suggestion:     e.Suggestion,
		Link:           e.Link,
		ApplicableAPIs: e.ApplicableAPIs,
		IsRetargeting:  e.IsRetargeting,
		IsBuildTime:    e.IsBuildTime,
		IsQuirked:      e.IsQuirked,
		ImpactScope:    e.ImpactScope,
		Categories:     e.Categories,
	}
	var err error
	if e.VersionBroken != "" {
		if b.VersionBroken, err = model.ParseVersion(e.VersionBroken); err != nil {
			return b, err
		}
	}
	if e.VersionFixed != "" {
		if b.VersionFixed, err = model.ParseVersion(e.VersionFixed); err != nil {
			return b, err
		}
	}
	return b, nil
}

func assemblyKey(identity string) string {
	return strings.ToLower(model.IdentityWithoutCultureAndVersion(identity))
}

// IsFrameworkAssembly reports whether identity names a platform assembly,
// either by listed identity or by a framework public key token.
func (c *Catalog) IsFrameworkAssembly(identity string) bool {
	if identity == "" {
		return false
	}
	if _, ok := c.frameworkAssemblies[assemblyKey(identity)]; ok {
		return true
	}
	if _, ok := c.frameworkAssemblies[strings.ToLower(model.AssemblyName(identity))]; ok {
		return true
	}
	tok := strings.ToLower(model.IdentityComponent(identity, "PublicKeyToken"))
	if tok == "" || tok == "null" {
		return false
	}
	_, ok := c.frameworkTokens[tok]
	return ok
}

// IsFrameworkMember reports whether docID is a known framework API.
func (c *Catalog) IsFrameworkMember(docID string) bool {
	_, ok := c.apis[docID]
	return ok
}

// IsMemberInTarget reports whether docID is available on target, returning the
// version it was introduced in.
func (c *Catalog) IsMemberInTarget(docID string, target model.Target) (bool, *semver.Version) {
	a, ok := c.apis[docID]
	if !ok || target.Version == nil {
		return false, nil
	}
	introduced, ok := a.introduced[strings.ToLower(target.Identifier)]
	if !ok || target.Version.LessThan(introduced) {
		return false, nil
	}
	return true, introduced
}

// SourceCompatibilityEquivalent returns the doc-id of a source compatible
// replacement for docID, or "".
func (c *Catalog) SourceCompatibilityEquivalent(docID string) string {
	if a, ok := c.apis[docID]; ok {
		return a.sourceEquivalent
	}
	return ""
}

// RecommendedChanges returns the textual replacement advice for docID.
func (c *Catalog) RecommendedChanges(docID string) string {
	if a, ok := c.apis[docID]; ok {
		return a.recommendedChanges
	}
	return ""
}

// SourceCompatibleChanges returns the source compatible change advice for docID.
func (c *Catalog) SourceCompatibleChanges(docID string) string {
	if a, ok := c.apis[docID]; ok {
		return a.sourceCompatibleChange
	}
	return ""
}

// BreakingChanges returns the breaking changes recorded against docID.
func (c *Catalog) BreakingChanges(docID string) []model.BreakingChange {
	return c.breaking[docID]
}

// LatestTarget returns the newest known version of a framework, with the
// identifier in its catalog spelling.
func (c *Catalog) LatestTarget(identifier string) (model.Target, bool) {
	fw, ok := c.frameworks[strings.ToLower(strings.TrimSpace(identifier))]
	if !ok || len(fw.versions) == 0 {
		return model.Target{}, false
	}
	return model.Target{Identifier: fw.identifier, Version: fw.versions[len(fw.versions)-1]}, true
}

// Targets returns every known framework version, grouped by framework in
// catalog order.
func (c *Catalog) Targets() []model.Target {
	var out []model.Target
	for _, key := range c.frameworkOrder {
		fw := c.frameworks[key]
		for _, v := range fw.versions {
			out = append(out, model.Target{Identifier: fw.identifier, Version: v})
		}
	}
	return out
}

// LastModified returns the catalog's build time.
func (c *Catalog) LastModified() time.Time {
	return c.lastModified
}

// Len returns the number of APIs in the catalog.
func (c *Catalog) Len() int {
	return len(c.apis)
}
