package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest writes manifest content to a temp file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadRejectsNonMapping verifies that a manifest whose document is not
// a mapping is rejected at load time.
func TestLoadRejectsNonMapping(t *testing.T) {
	path := writeManifest(t, "- just\n- a\n- list\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a mapping document")
}

// TestLoadMissingFile verifies the error path for an absent manifest.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
}

// TestSetPackageVersion verifies that only the version value changes on a
// round trip: comments, key order, and unrelated fields all survive.
func TestSetPackageVersion(t *testing.T) {
	content := `# release manifest
package:
  name: core # the primary package
  version: 0.1.0
  description: fixture package
dependencies:
  left-pad: 1.0.0
`
	path := writeManifest(t, content)

	doc, err := Load(path)
	require.NoError(t, err)

	require.True(t, SetPackageVersion(doc, "0.2.0"))
	require.NoError(t, Save(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, "version: 0.2.0")
	assert.Contains(t, got, "# release manifest")
	assert.Contains(t, got, "name: core # the primary package")
	assert.Contains(t, got, "description: fixture package")
	assert.NotContains(t, got, "0.1.0")
}

// TestSetPackageVersionInsertsMissingKey verifies that a package section
// without a version key gains one.
func TestSetPackageVersionInsertsMissingKey(t *testing.T) {
	path := writeManifest(t, "package:\n  name: core\n")

	doc, err := Load(path)
	require.NoError(t, err)

	require.True(t, SetPackageVersion(doc, "0.1.0"))

	v, ok := PackageVersion(doc)
	require.True(t, ok)
	assert.Equal(t, "0.1.0", v)
}

// TestSetPackageVersionAggregator verifies that a manifest without a
// package section (a pure aggregator) reports false instead of erroring.
func TestSetPackageVersionAggregator(t *testing.T) {
	path := writeManifest(t, "dependencies:\n  core: 0.1.0\n")

	doc, err := Load(path)
	require.NoError(t, err)

	assert.False(t, SetPackageVersion(doc, "9.9.9"))
}

// TestUpdateDependencies covers both declaration forms across all three
// dependency sections, and verifies untouched entries stay untouched.
func TestUpdateDependencies(t *testing.T) {
	content := `package:
  name: tools
  version: 0.3.0
dependencies:
  core: 0.1.0
  left-pad: 1.0.0
dev-dependencies:
  core-extras:
    version: 0.1.0
    optional: true
build-dependencies:
  builder:
    path: ../builder
`
	path := writeManifest(t, content)

	doc, err := Load(path)
	require.NoError(t, err)

	changed := map[string]string{
		"core":        "0.2.0",
		"core-extras": "0.1.1",
		"builder":     "5.0.0", // mapping without a version key: must stay untouched
	}
	require.True(t, UpdateDependencies(doc, changed))
	require.NoError(t, Save(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, "core: 0.2.0")
	assert.Contains(t, got, "version: 0.1.1")
	assert.Contains(t, got, "optional: true")
	assert.Contains(t, got, "left-pad: 1.0.0")
	assert.Contains(t, got, "path: ../builder")
	assert.NotContains(t, got, "5.0.0")
}

// TestUpdateDependenciesNoMatch verifies that a manifest referencing none
// of the changed packages reports unmodified, so callers skip the write.
func TestUpdateDependenciesNoMatch(t *testing.T) {
	path := writeManifest(t, "package:\n  name: solo\n  version: 1.0.0\ndependencies:\n  left-pad: 1.0.0\n")

	doc, err := Load(path)
	require.NoError(t, err)

	assert.False(t, UpdateDependencies(doc, map[string]string{"core": "0.2.0"}))
}

// TestPackageFieldsAndDependencyNames verifies the read accessors used by
// workspace discovery.
func TestPackageFieldsAndDependencyNames(t *testing.T) {
	content := `package:
  name: tools
  version: 0.3.0
dependencies:
  core: 0.1.0
dev-dependencies:
  core-extras: 0.1.0
`
	doc, err := Load(writeManifest(t, content))
	require.NoError(t, err)

	name, ok := PackageName(doc)
	require.True(t, ok)
	assert.Equal(t, "tools", name)

	version, ok := PackageVersion(doc)
	require.True(t, ok)
	assert.Equal(t, "0.3.0", version)

	assert.Equal(t, []string{"core", "core-extras"}, DependencyNames(doc))
}
