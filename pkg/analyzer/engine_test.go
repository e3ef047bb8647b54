package analyzer

import (
	"context"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/sambabib/portability-analyzer/pkg/catalog"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) IsFrameworkAssembly(identity string) bool {
	return m.Called(identity).Bool(0)
}

func (m *mockCatalog) IsFrameworkMember(docID string) bool {
	return m.Called(docID).Bool(0)
}

func (m *mockCatalog) IsMemberInTarget(docID string, target model.Target) (bool, *semver.Version) {
	args := m.Called(docID, target)
	v, _ := args.Get(1).(*semver.Version)
	return args.Bool(0), v
}

func (m *mockCatalog) SourceCompatibilityEquivalent(docID string) string {
	return m.Called(docID).String(0)
}

type mockRecommendations struct {
	mock.Mock
}

func (m *mockRecommendations) RecommendedChanges(docID string) string {
	return m.Called(docID).String(0)
}

func (m *mockRecommendations) SourceCompatibleChanges(docID string) string {
	return m.Called(docID).String(0)
}

func (m *mockRecommendations) BreakingChanges(docID string) []model.BreakingChange {
	args := m.Called(docID)
	return args.Get(0).([]model.BreakingChange)
}

const mscorlib = "mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089"

var (
	appA  = model.AssemblyInfo{AssemblyIdentity: "AppA, Version=1.0.0.0", IsExplicitlySpecified: true}
	appB  = model.AssemblyInfo{AssemblyIdentity: "AppB, Version=1.0.0.0", IsExplicitlySpecified: true}
	myLib = model.AssemblyInfo{AssemblyIdentity: "MyLib, Version=1.0.0.0", IsExplicitlySpecified: true}

	fx45   = model.Target{Identifier: ".NET Framework", Version: model.MustParseVersion("4.5")}
	fx48   = model.Target{Identifier: ".NET Framework", Version: model.MustParseVersion("4.8")}
	core20 = model.Target{Identifier: ".NET Core", Version: model.MustParseVersion("2.0")}
	core31 = model.Target{Identifier: ".NET Core", Version: model.MustParseVersion("3.1")}
)

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(&catalog.File{
		FrameworkAssemblies:      []string{"mscorlib", "System.Runtime"},
		FrameworkPublicKeyTokens: []string{"b77a5c561934e089"},
		Targets: []catalog.TargetEntry{
			{Identifier: ".NET Framework", Versions: []string{"4.5", "4.6.2", "4.8"}},
			{Identifier: ".NET Core", Versions: []string{"2.0", "3.1"}},
		},
		APIs: []catalog.APIEntry{
			{DocID: "T:System.Foo", Targets: map[string]string{".NET Framework": "4.5", ".NET Core": "2.0"}},
			{
				DocID:                  "M:System.Foo.Bar",
				Targets:                map[string]string{".NET Framework": "4.5"},
				SourceEquivalent:       "M:System.Foo.BarAsync",
				RecommendedChanges:     "Use BarAsync.",
				SourceCompatibleChange: "M:System.Foo.BarAsync",
			},
			{DocID: "M:System.Foo.BarAsync", Targets: map[string]string{".NET Core": "3.1"}},
			{DocID: "M:System.Foo.Legacy", Targets: map[string]string{".NET Framework": "4.5"}},
			{DocID: "T:System.Gone", Targets: map[string]string{".NET Framework": "4.5"}},
		},
		BreakingChanges: []catalog.BreakingChangeEntry{
			{ID: "17", Title: "Bar throws on null", ApplicableAPIs: []string{"M:System.Foo.Bar", "M:System.Foo.Bar"}, VersionBroken: "4.6", IsRetargeting: true},
			{ID: "42", Title: "Legacy changed", ApplicableAPIs: []string{"M:System.Foo.Legacy"}, VersionBroken: "4.0", VersionFixed: "4.6"},
		},
	})
	require.NoError(t, err)
	return c
}

func frameworkMember(docID string) model.MemberInfo {
	return model.MemberInfo{MemberDocID: docID, DefinedInAssemblyIdentity: mscorlib}
}

func statusStrings(m model.MemberInfo) []string {
	out := make([]string, len(m.TargetStatus))
	for i, v := range m.TargetStatus {
		if v != nil {
			out[i] = model.FormatVersion(v)
		}
	}
	return out
}

func docIDs(members []model.MemberInfo) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.MemberDocID
	}
	return out
}

func TestEngine_FindMembersNotInTargets_Mocked(t *testing.T) {
	target1 := model.Target{Identifier: "Target1", Version: model.MustParseVersion("1.0")}
	target2 := model.Target{Identifier: "Target2", Version: model.MustParseVersion("2.0")}
	v2 := model.MustParseVersion("2.0")

	cat := &mockCatalog{}
	cat.On("IsFrameworkAssembly", "Fx").Return(true)
	cat.On("IsFrameworkMember", "M:Foo.Bar").Return(true)
	cat.On("IsMemberInTarget", "M:Foo.Bar", target1).Return(false, nil)
	cat.On("IsMemberInTarget", "M:Foo.Bar", target2).Return(true, v2)
	cat.On("SourceCompatibilityEquivalent", "M:Foo.Bar").Return("")

	recs := &mockRecommendations{}
	recs.On("RecommendedChanges", "M:Foo.Bar").Return("Use Foo.Baz")
	recs.On("SourceCompatibleChanges", "M:Foo.Bar").Return("")

	deps := model.NewDependencyGraph()
	deps.Add(model.MemberInfo{MemberDocID: "M:Foo.Bar", DefinedInAssemblyIdentity: "Fx, Version=1.0.0.0, Culture=neutral"}, appA)

	engine := NewEngine(cat, recs)
	missing, err := engine.FindMembersNotInTargets(context.Background(), []model.Target{target1, target2}, deps)
	require.NoError(t, err)
	require.Len(t, missing, 1)

	m := missing[0]
	assert.Equal(t, "M:Foo.Bar", m.MemberDocID)
	assert.False(t, m.IsSupportedAcrossTargets)
	require.Len(t, m.TargetStatus, 2)
	assert.Nil(t, m.TargetStatus[0])
	assert.Equal(t, v2, m.TargetStatus[1])
	assert.Equal(t, "Use Foo.Baz", m.RecommendedChanges)

	cat.AssertExpectations(t)
	recs.AssertExpectations(t)
}

func TestEngine_FindMembersNotInTargets(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c, WithWorkers(2))

	deps := model.NewDependencyGraph()
	deps.Add(frameworkMember("T:System.Foo"), appA)
	deps.Add(frameworkMember("M:System.Foo.Bar"), appA, appB)
	deps.Add(frameworkMember("M:System.Foo.BarAsync"), appB)
	deps.Add(frameworkMember("M:System.Foo.Legacy"), appA)
	deps.Add(model.MemberInfo{MemberDocID: "M:MyLib.Helper.Run", DefinedInAssemblyIdentity: myLib.AssemblyIdentity}, appA)

	missing, err := engine.FindMembersNotInTargets(context.Background(), []model.Target{fx45, core31}, deps)
	require.NoError(t, err)

	// Bar is covered on .NET Core through its source-compatible equivalent.
	assert.Equal(t, []string{"M:System.Foo.BarAsync", "M:System.Foo.Legacy"}, docIDs(missing))
	assert.Equal(t, []string{"", "3.1"}, statusStrings(missing[0]))
	assert.Equal(t, []string{"4.5", ""}, statusStrings(missing[1]))

	for _, m := range deps.Members() {
		assert.Nil(t, m.TargetStatus, "graph entries are not modified")
	}
}

func TestEngine_FindMembersNotInTargets_Recommendations(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)

	deps := model.NewDependencyGraph()
	deps.Add(frameworkMember("M:System.Foo.Bar"), appA)

	missing, err := engine.FindMembersNotInTargets(context.Background(), []model.Target{fx45, core20}, deps)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, []string{"4.5", ""}, statusStrings(missing[0]))
	assert.Equal(t, "Use BarAsync.", missing[0].RecommendedChanges)
	assert.Equal(t, "M:System.Foo.BarAsync", missing[0].SourceCompatibleChange)
}

func TestEngine_FindMembersNotInTargets_EmptyInputs(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)

	deps := model.NewDependencyGraph()
	deps.Add(frameworkMember("M:System.Foo.Legacy"), appA)

	tests := []struct {
		name    string
		targets []model.Target
		deps    *model.DependencyGraph
	}{
		{"nil graph", []model.Target{fx45}, nil},
		{"empty graph", []model.Target{fx45}, model.NewDependencyGraph()},
		{"no targets", nil, deps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, err := engine.FindMembersNotInTargets(context.Background(), tt.targets, tt.deps)
			require.NoError(t, err)
			assert.NotNil(t, missing)
			assert.Empty(t, missing)
		})
	}
}

func TestEngine_FindMembersNotInTargets_KeepsGraphOrder(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c, WithWorkers(4))

	docs := []string{"M:System.Foo.Legacy", "M:System.Foo.BarAsync", "T:System.Gone"}
	deps := model.NewDependencyGraph()
	for i := 0; i < 30; i++ {
		for _, d := range docs {
			m := frameworkMember(d)
			// distinct keys with the same doc-id
			m.DefinedInAssemblyIdentity = mscorlib + string(rune('a'+i%26)) + string(rune('0'+i/26))
			deps.Add(m, appA)
		}
	}

	missing, err := engine.FindMembersNotInTargets(context.Background(), []model.Target{core31}, deps)
	require.NoError(t, err)
	require.Len(t, missing, 60)
	for i, m := range missing {
		if i%2 == 0 {
			assert.Equal(t, "M:System.Foo.Legacy", m.MemberDocID)
		} else {
			assert.Equal(t, "T:System.Gone", m.MemberDocID)
		}
	}
}

func TestEngine_FindMembersNotInTargets_Cancelled(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)

	deps := model.NewDependencyGraph()
	deps.Add(frameworkMember("M:System.Foo.Legacy"), appA)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.FindMembersNotInTargets(ctx, []model.Target{core31}, deps)
	assert.ErrorIs(t, err, context.Canceled)
}

func breakingDeps() *model.DependencyGraph {
	deps := model.NewDependencyGraph()
	deps.Add(frameworkMember("M:System.Foo.Bar"), appA, appB)
	deps.Add(frameworkMember("M:System.Foo.Legacy"), appA)
	deps.Add(model.MemberInfo{MemberDocID: "M:System.Foo.Legacy", DefinedInAssemblyIdentity: myLib.AssemblyIdentity}, appB)
	return deps
}

type breakRecord struct {
	id       string
	assembly string
}

func collectBreaks(engine *Engine, deps *model.DependencyGraph, opts ...BreakingChangeOption) []breakRecord {
	var out []breakRecord
	for b := range engine.FindBreakingChanges(deps, opts...) {
		out = append(out, breakRecord{b.Break.ID, b.DependantAssembly.AssemblyIdentity})
	}
	return out
}

func TestEngine_FindBreakingChanges(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)
	deps := breakingDeps()

	tests := []struct {
		name     string
		opts     []BreakingChangeOption
		expected []breakRecord
	}{
		{
			name: "no options",
			expected: []breakRecord{
				{"17", appA.AssemblyIdentity},
				{"17", appB.AssemblyIdentity},
				{"42", appA.AssemblyIdentity},
			},
		},
		{
			name:     "framework 4.5 predates break 17",
			opts:     []BreakingChangeOption{WithTargets([]model.Target{fx45})},
			expected: []breakRecord{{"42", appA.AssemblyIdentity}},
		},
		{
			name: "framework 4.8 is past the fix of break 42",
			opts: []BreakingChangeOption{WithTargets([]model.Target{fx48})},
			expected: []breakRecord{
				{"17", appA.AssemblyIdentity},
				{"17", appB.AssemblyIdentity},
			},
		},
		{
			name: "no framework target keeps everything",
			opts: []BreakingChangeOption{WithTargets([]model.Target{core31})},
			expected: []breakRecord{
				{"17", appA.AssemblyIdentity},
				{"17", appB.AssemblyIdentity},
				{"42", appA.AssemblyIdentity},
			},
		},
		{
			name:     "retargeting excluded",
			opts:     []BreakingChangeOption{WithRetargeting(false)},
			expected: []breakRecord{{"42", appA.AssemblyIdentity}},
		},
		{
			name: "suppressed",
			opts: []BreakingChangeOption{WithSuppressed([]string{" 42 "})},
			expected: []breakRecord{
				{"17", appA.AssemblyIdentity},
				{"17", appB.AssemblyIdentity},
			},
		},
		{
			name:     "skipped assembly",
			opts:     []BreakingChangeOption{WithSkippedAssemblies([]model.AssemblyInfo{{AssemblyIdentity: "appa, version=1.0.0.0"}})},
			expected: []breakRecord{{"17", appB.AssemblyIdentity}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, collectBreaks(engine, deps, tt.opts...))
		})
	}
}

func TestEngine_FindBreakingChanges_StopsEarly(t *testing.T) {
	recs := &mockRecommendations{}
	recs.On("BreakingChanges", "M:System.Foo.Bar").Return([]model.BreakingChange{{ID: "1"}, {ID: "2"}}).Once()

	cat := &mockCatalog{}
	cat.On("IsFrameworkAssembly", mock.Anything).Return(true)
	cat.On("IsFrameworkMember", mock.Anything).Return(true)

	engine := NewEngine(cat, recs)
	seq := engine.FindBreakingChanges(breakingDeps())
	recs.AssertNotCalled(t, "BreakingChanges", mock.Anything)

	var first model.BreakingChangeDependency
	for b := range seq {
		first = b
		break
	}
	assert.Equal(t, "1", first.Break.ID)
	assert.Equal(t, appA, first.DependantAssembly)
	assert.Equal(t, "M:System.Foo.Bar", first.Member.MemberDocID)
	recs.AssertNumberOfCalls(t, "BreakingChanges", 1)
}

func TestEngine_FindUnreferencedAssemblies(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)

	unresolved := []string{
		"Missing.Lib, Version=2.0.0.0",
		"System.Runtime, Version=4.2.0.0, Culture=neutral",
		"MYLIB, Version=1.0.0.0",
		"Other, Version=1.0.0.0, PublicKeyToken=b77a5c561934e089",
		"Another.Lib, Version=1.0.0.0",
	}

	got := engine.FindUnreferencedAssemblies(unresolved, []model.AssemblyInfo{myLib})
	assert.Equal(t, []string{"Missing.Lib, Version=2.0.0.0", "Another.Lib, Version=1.0.0.0"}, got)

	assert.Empty(t, engine.FindUnreferencedAssemblies(nil, nil))
	assert.NotNil(t, engine.FindUnreferencedAssemblies(nil, nil))
	assert.Equal(t, []string{"Missing.Lib, Version=2.0.0.0"}, engine.FindUnreferencedAssemblies(unresolved[:1], nil))
}

func TestEngine_FindBreakingChangeSkippedAssemblies(t *testing.T) {
	c := newTestCatalog(t)
	engine := NewEngine(c, c)
	users := []model.AssemblyInfo{appA, appB, myLib}

	ignore := []model.IgnoreAssemblyInfo{
		{AssemblyIdentity: "appa, version=1.0.0.0"},
		{AssemblyIdentity: appB.AssemblyIdentity, TargetsIgnored: []string{".NET Framework,Version=v4.5"}},
		{AssemblyIdentity: myLib.AssemblyIdentity, TargetsIgnored: []string{".NET Framework, Version=4.5", ".NET Core,Version=v3.1"}},
	}

	got := engine.FindBreakingChangeSkippedAssemblies([]model.Target{fx45, core31}, users, ignore)
	assert.Equal(t, []model.AssemblyInfo{appA, myLib}, got)

	got = engine.FindBreakingChangeSkippedAssemblies([]model.Target{fx45}, users, ignore)
	assert.Equal(t, []model.AssemblyInfo{appA, appB, myLib}, got)

	assert.Empty(t, engine.FindBreakingChangeSkippedAssemblies([]model.Target{fx45}, users, nil))
}
