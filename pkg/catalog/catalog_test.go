package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sambabib/portability-analyzer/pkg/datafile"
	"github.com/sambabib/portability-analyzer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
lastModified: 2024-03-01T10:00:00Z
frameworkAssemblies:
  - mscorlib
  - System.Runtime, PublicKeyToken=b03f5f7f11d50a3a
frameworkPublicKeyTokens:
  - b77a5c561934e089
targets:
  - identifier: .NET Framework
    versions: ["4.5", "4.8", "4.6.2"]
  - identifier: .NET Core
    versions: ["3.1", "2.0"]
apis:
  - docId: T:System.Foo
    targets:
      .NET Framework: "4.5"
      .NET Core: "2.0"
  - docId: M:System.Foo.Bar
    targets:
      .NET Framework: "4.5"
    sourceEquivalent: M:System.Foo.BarAsync
    recommendedChanges: Use BarAsync instead.
    sourceCompatibleChange: M:System.Foo.BarAsync
  - docId: M:System.Foo.BarAsync
    targets:
      .NET Core: "3.1"
breakingChanges:
  - id: "17"
    title: Bar throws on null
    applicableApis: ["M:System.Foo.Bar"]
    versionBroken: "4.6"
    isRetargeting: true
`

func writeCatalog(t *testing.T, name string, compression datafile.Compression) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := datafile.Compress(f, compression)
	require.NoError(t, err)
	_, err = w.Write([]byte(testCatalogYAML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func loadTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(writeCatalog(t, "catalog.yaml", datafile.CompressionNone))
	require.NoError(t, err)
	return c
}

func TestLoad_CompressedVariants(t *testing.T) {
	tests := []struct {
		name        string
		compression datafile.Compression
	}{
		{"catalog.yaml", datafile.CompressionNone},
		{"catalog.yaml.gz", datafile.CompressionGzip},
		{"catalog.yml.zst", datafile.CompressionZstd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeCatalog(t, tt.name, tt.compression))
			require.NoError(t, err)
			assert.Equal(t, 3, c.Len())
			assert.Equal(t, 2024, c.LastModified().Year())
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load("catalog.txt")
	assert.ErrorIs(t, err, datafile.ErrUnsupportedFormat)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("targets:\n  - identifier: X\n    versions: [\"not-a-version\"]\n"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	doc := `{"apis": [{"docId": "M:A.B", "targets": {".NET Core": "3.1"}}], "targets": [{"identifier": ".NET Core", "versions": ["3.1"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.IsFrameworkMember("M:A.B"))
}

func TestCatalog_IsFrameworkAssembly(t *testing.T) {
	c := loadTestCatalog(t)

	tests := []struct {
		identity string
		expected bool
	}{
		{"mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089", true},
		{"MSCORLIB", true},
		{"System.Runtime, Version=4.2.0.0, Culture=neutral, PublicKeyToken=b03f5f7f11d50a3a", true},
		{"System.Xml, Version=4.0.0.0, Culture=neutral, PublicKeyToken=b77a5c561934e089", true},
		{"MyLib, Version=1.0.0.0, Culture=neutral, PublicKeyToken=null", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, c.IsFrameworkAssembly(tt.identity), tt.identity)
	}
}

func TestCatalog_IsMemberInTarget(t *testing.T) {
	c := loadTestCatalog(t)
	net45, _ := model.NewTarget(".NET Framework", "4.5")
	net40, _ := model.NewTarget(".NET Framework", "4.0")
	core31, _ := model.NewTarget(".net core", "3.1")

	ok, v := c.IsMemberInTarget("M:System.Foo.Bar", net45)
	assert.True(t, ok)
	assert.Equal(t, "4.5", model.FormatVersion(v))

	ok, v = c.IsMemberInTarget("M:System.Foo.Bar", net40)
	assert.False(t, ok, "target older than the introduced version")
	assert.Nil(t, v)

	ok, _ = c.IsMemberInTarget("M:System.Foo.Bar", core31)
	assert.False(t, ok)

	ok, v = c.IsMemberInTarget("M:System.Foo.BarAsync", core31)
	assert.True(t, ok, "identifier comparison ignores case")
	assert.Equal(t, "3.1", model.FormatVersion(v))

	ok, _ = c.IsMemberInTarget("M:Unknown", net45)
	assert.False(t, ok)
}

func TestCatalog_Recommendations(t *testing.T) {
	c := loadTestCatalog(t)

	assert.True(t, c.IsFrameworkMember("T:System.Foo"))
	assert.False(t, c.IsFrameworkMember("T:User.Type"))
	assert.Equal(t, "M:System.Foo.BarAsync", c.SourceCompatibilityEquivalent("M:System.Foo.Bar"))
	assert.Equal(t, "", c.SourceCompatibilityEquivalent("M:Unknown"))
	assert.Equal(t, "Use BarAsync instead.", c.RecommendedChanges("M:System.Foo.Bar"))
	assert.Equal(t, "M:System.Foo.BarAsync", c.SourceCompatibleChanges("M:System.Foo.Bar"))

	breaks := c.BreakingChanges("M:System.Foo.Bar")
	require.Len(t, breaks, 1)
	assert.Equal(t, "17", breaks[0].ID)
	assert.True(t, breaks[0].IsRetargeting)
	assert.Equal(t, "4.6", model.FormatVersion(breaks[0].VersionBroken))
	assert.Nil(t, breaks[0].VersionFixed)
	assert.Empty(t, c.BreakingChanges("M:System.Foo.BarAsync"))
}

func TestCatalog_Targets(t *testing.T) {
	c := loadTestCatalog(t)

	latest, ok := c.LatestTarget(".net framework")
	require.True(t, ok)
	assert.Equal(t, ".NET Framework, Version=4.8", latest.String())

	_, ok = c.LatestTarget("Silverlight")
	assert.False(t, ok)

	var names []string
	for _, target := range c.Targets() {
		names = append(names, target.String())
	}
	assert.Equal(t, []string{
		".NET Framework, Version=4.5",
		".NET Framework, Version=4.6.2",
		".NET Framework, Version=4.8",
		".NET Core, Version=2.0",
		".NET Core, Version=3.1",
	}, names)
}
