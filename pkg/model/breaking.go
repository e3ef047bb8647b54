package model

import (
	"github.com/Masterminds/semver/v3"
)

// BreakingChange is a documented behavior change of a framework API between
// versions.
type BreakingChange struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Details        string          `json:"details,omitempty"`
	Suggestion     string          `json:"suggestion,omitempty"`
	Link           string          `json:"link,omitempty"`
	ApplicableAPIs []string        `json:"applicableApis,omitempty"`
	VersionBroken  *semver.Version `json:"versionBroken,omitempty"`
	VersionFixed   *semver.Version `json:"versionFixed,omitempty"`
	IsRetargeting  bool            `json:"isRetargeting"`
	IsBuildTime    bool            `json:"isBuildTime"`
	IsQuirked      bool            `json:"isQuirked"`
	ImpactScope    string          `json:"impactScope,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
}

// AppliesTo reports whether a target at version v is affected, i.e. v lies in
// [VersionBroken, VersionFixed). Missing bounds are open.
func (b BreakingChange) AppliesTo(v *semver.Version) bool {
	if v == nil {
		return false
	}
	if b.VersionBroken != nil && v.LessThan(b.VersionBroken) {
		return false
	}
	if b.VersionFixed != nil && !v.LessThan(b.VersionFixed) {
		return false
	}
	return true
}

// BreakingChangeDependency ties a breaking change to a member and an assembly
// that calls it.
type BreakingChangeDependency struct {
	Break             BreakingChange `json:"break"`
	DependantAssembly AssemblyInfo   `json:"dependantAssembly"`
	Member            MemberInfo     `json:"member"`
}
