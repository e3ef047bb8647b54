package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/sambabib/portability-analyzer/pkg/model"
)

// ErrNotTypeDocID is returned when a missing type is built from a doc-id that
// does not name a type.
var ErrNotTypeDocID = errors.New("doc-id does not contain a type segment")

const notSupportedStatus = "Not supported"

// statusMessage renders one entry of a target status vector.
func statusMessage(v *semver.Version) string {
	if v == nil {
		return notSupportedStatus
	}
	return fmt.Sprintf("Supported: %s+", model.FormatVersion(v))
}

// missingInfo holds the fields missing types and members share.
type missingInfo struct {
	docID               string
	recommendedChanges  string
	targetStatus        []string
	targetVersionStatus []*semver.Version
	usedIn              map[model.AssemblyInfo]struct{}
	uses                int
}

func newMissingInfo(source model.AssemblyInfo, docID string, status []*semver.Version, recommendedChanges string) missingInfo {
	m := missingInfo{
		docID:               docID,
		recommendedChanges:  recommendedChanges,
		targetStatus:        make([]string, len(status)),
		targetVersionStatus: slices.Clone(status),
		usedIn:              make(map[model.AssemblyInfo]struct{}),
	}
	for i, v := range status {
		m.targetStatus[i] = statusMessage(v)
	}
	m.incrementUsage(source)
	return m
}

func (m *missingInfo) incrementUsage(source model.AssemblyInfo) {
	m.usedIn[source] = struct{}{}
	m.uses++
}

// DocID returns the doc-id the record was created from.
func (m *missingInfo) DocID() string { return m.docID }

// RecommendedChanges returns the replacement advice, if any.
func (m *missingInfo) RecommendedChanges() string { return m.recommendedChanges }

// TargetStatus returns one status message per target.
func (m *missingInfo) TargetStatus() []string { return slices.Clone(m.targetStatus) }

// TargetVersionStatus returns one version per target; nil means unsupported.
func (m *missingInfo) TargetVersionStatus() []*semver.Version {
	return slices.Clone(m.targetVersionStatus)
}

// Uses returns how many times the record was reported.
func (m *missingInfo) Uses() int { return m.uses }

// UsedIn returns the assemblies that use the record, sorted by identity.
func (m *missingInfo) UsedIn() []model.AssemblyInfo {
	out := make([]model.AssemblyInfo, 0, len(m.usedIn))
	for a := range m.usedIn {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b model.AssemblyInfo) int {
		return strings.Compare(a.AssemblyIdentity, b.AssemblyIdentity)
	})
	return out
}

type missingInfoJSON struct {
	DocID              string               `json:"docId"`
	RecommendedChanges string               `json:"recommendedChanges,omitempty"`
	TargetStatus       []string             `json:"targetStatus"`
	Uses               int                  `json:"uses"`
	UsedIn             []model.AssemblyInfo `json:"usedIn"`
}

func (m *missingInfo) toJSON() missingInfoJSON {
	return missingInfoJSON{
		DocID:              m.docID,
		RecommendedChanges: m.recommendedChanges,
		TargetStatus:       m.targetStatus,
		Uses:               m.uses,
		UsedIn:             m.UsedIn(),
	}
}

// MissingMemberInfo is an unsupported method, field or property.
type MissingMemberInfo struct {
	missingInfo
	memberName string
}

// NewMissingMemberInfo creates a member record used once by source.
func NewMissingMemberInfo(source model.AssemblyInfo, docID string, status []*semver.Version, recommendedChanges string) *MissingMemberInfo {
	name := docID
	if model.DocIDKind(docID) != 0 {
		name = docID[2:]
	}
	return &MissingMemberInfo{
		missingInfo: newMissingInfo(source, docID, status, recommendedChanges),
		memberName:  name,
	}
}

// MemberName is the doc-id without its kind prefix.
func (m *MissingMemberInfo) MemberName() string { return m.memberName }

// Equal reports whether both records describe the same member.
func (m *MissingMemberInfo) Equal(other *MissingMemberInfo) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.memberName == other.memberName
}

func (m *MissingMemberInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MemberName string `json:"memberName"`
		missingInfoJSON
	}{m.memberName, m.toJSON()})
}

// MissingTypeInfo is an unsupported type together with its unsupported
// members. IsMissing is true only when the type itself was referenced.
type MissingTypeInfo struct {
	missingInfo
	typeName  string
	isMissing bool
	members   map[string]*MissingMemberInfo
}

// NewMissingTypeInfo creates a type record used once by source. The doc-id
// must contain a "T:" segment.
func NewMissingTypeInfo(source model.AssemblyInfo, docID string, status []*semver.Version, recommendedChanges string) (*MissingTypeInfo, error) {
	name, err := typeName(docID)
	if err != nil {
		return nil, err
	}
	return &MissingTypeInfo{
		missingInfo: newMissingInfo(source, docID, status, recommendedChanges),
		typeName:    name,
		members:     make(map[string]*MissingMemberInfo),
	}, nil
}

func typeName(docID string) (string, error) {
	i := strings.Index(docID, "T:")
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrNotTypeDocID, docID)
	}
	return docID[i+2:], nil
}

// TypeName is the doc-id with the leading "T:" trimmed.
func (t *MissingTypeInfo) TypeName() string { return t.typeName }

// IsMissing reports whether the type itself is unsupported, as opposed to only
// some of its members.
func (t *MissingTypeInfo) IsMissing() bool { return t.isMissing }

// Members returns the unsupported members, sorted by name.
func (t *MissingTypeInfo) Members() []*MissingMemberInfo {
	out := make([]*MissingMemberInfo, 0, len(t.members))
	for _, m := range t.members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *MissingMemberInfo) int {
		return strings.Compare(a.memberName, b.memberName)
	})
	return out
}

// Equal reports whether both records describe the same type.
func (t *MissingTypeInfo) Equal(other *MissingTypeInfo) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.typeName == other.typeName
}

func (t *MissingTypeInfo) markAsMissing() {
	t.isMissing = true
}

// addMissingMember records member; a member with the same name only gains a use.
func (t *MissingTypeInfo) addMissingMember(member *MissingMemberInfo, source model.AssemblyInfo) {
	if existing, ok := t.members[member.memberName]; ok {
		existing.incrementUsage(source)
		return
	}
	t.members[member.memberName] = member
}

func (t *MissingTypeInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TypeName  string               `json:"typeName"`
		IsMissing bool                 `json:"isMissing"`
		Members   []*MissingMemberInfo `json:"members"`
		missingInfoJSON
	}{t.typeName, t.isMissing, t.Members(), t.toJSON()})
}
