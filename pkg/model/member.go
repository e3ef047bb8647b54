package model

import (
	"encoding/json"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// MemberKey is the canonical identity of a referenced member. Doc-ids are not
// unique across assemblies, so the defining assembly is part of the key.
type MemberKey struct {
	DefinedInAssemblyIdentity string
	MemberDocID               string
}

// MemberInfo identifies one referenced API member. The derived fields are
// filled in by the analysis engine.
type MemberInfo struct {
	MemberDocID               string
	TypeDocID                 string
	DefinedInAssemblyIdentity string

	IsSupportedAcrossTargets bool
	// TargetStatus has one entry per requested target, in request order. A nil
	// entry means unsupported on that target; otherwise the version the member
	// was introduced in.
	TargetStatus           []*semver.Version
	RecommendedChanges     string
	SourceCompatibleChange string
}

// Key returns the member's canonical identity.
func (m MemberInfo) Key() MemberKey {
	return MemberKey{DefinedInAssemblyIdentity: m.DefinedInAssemblyIdentity, MemberDocID: m.MemberDocID}
}

// ContainingTypeDocID returns the doc-id of the type the member belongs to. A
// type reference is its own containing type. When the dependency finder did not
// supply TypeDocID it is derived from the member doc-id; "" means it could not
// be derived.
func (m MemberInfo) ContainingTypeDocID() string {
	if m.TypeDocID != "" {
		return m.TypeDocID
	}
	if DocIDKind(m.MemberDocID) == 'T' {
		return m.MemberDocID
	}
	return DeriveTypeDocID(m.MemberDocID)
}

func (m MemberInfo) String() string {
	return m.MemberDocID
}

// DocIDKind returns the kind letter of a doc-id ('T', 'M', 'F', 'P', 'E', ...)
// or 0 when the doc-id has no "X:" prefix.
func DocIDKind(docID string) byte {
	if len(docID) < 2 || docID[1] != ':' {
		return 0
	}
	return docID[0]
}

// IsMemberDocID reports whether docID names a method, field or property.
func IsMemberDocID(docID string) bool {
	return strings.HasPrefix(docID, "M:") || strings.HasPrefix(docID, "F:") || strings.HasPrefix(docID, "P:")
}

// DeriveTypeDocID maps a member doc-id to its containing type:
// "M:System.IO.File.Open(System.String)" -> "T:System.IO.File".
func DeriveTypeDocID(memberDocID string) string {
	if DocIDKind(memberDocID) == 0 {
		return ""
	}
	name := memberDocID[2:]
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return "T:" + name[:i]
}

type memberJSON struct {
	MemberDocID               string    `json:"memberDocId"`
	TypeDocID                 string    `json:"typeDocId,omitempty"`
	DefinedInAssemblyIdentity string    `json:"definedInAssemblyIdentity"`
	IsSupportedAcrossTargets  bool      `json:"isSupportedAcrossTargets"`
	TargetStatus              []*string `json:"targetStatus,omitempty"`
	RecommendedChanges        string    `json:"recommendedChanges,omitempty"`
	SourceCompatibleChange    string    `json:"sourceCompatibleChange,omitempty"`
}

func (m MemberInfo) MarshalJSON() ([]byte, error) {
	out := memberJSON{
		MemberDocID:               m.MemberDocID,
		TypeDocID:                 m.TypeDocID,
		DefinedInAssemblyIdentity: m.DefinedInAssemblyIdentity,
		IsSupportedAcrossTargets:  m.IsSupportedAcrossTargets,
		RecommendedChanges:        m.RecommendedChanges,
		SourceCompatibleChange:    m.SourceCompatibleChange,
	}
	if m.TargetStatus != nil {
		out.TargetStatus = make([]*string, len(m.TargetStatus))
		for i, v := range m.TargetStatus {
			if v != nil {
				s := FormatVersion(v)
				out.TargetStatus[i] = &s
			}
		}
	}
	return json.Marshal(out)
}

func (m *MemberInfo) UnmarshalJSON(data []byte) error {
	var raw memberJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MemberInfo{
		MemberDocID:               raw.MemberDocID,
		TypeDocID:                 raw.TypeDocID,
		DefinedInAssemblyIdentity: raw.DefinedInAssemblyIdentity,
		IsSupportedAcrossTargets:  raw.IsSupportedAcrossTargets,
		RecommendedChanges:        raw.RecommendedChanges,
		SourceCompatibleChange:    raw.SourceCompatibleChange,
	}
	if raw.TargetStatus != nil {
		m.TargetStatus = make([]*semver.Version, len(raw.TargetStatus))
		for i, s := range raw.TargetStatus {
			if s == nil {
				continue
			}
			v, err := ParseVersion(*s)
			if err != nil {
				return err
			}
			m.TargetStatus[i] = v
		}
	}
	return nil
}
