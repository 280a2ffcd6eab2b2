package workspace

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// setupDiscoveryRepo creates a repository with a GitHub origin remote and
// two packages: "widgets" at the root (matching the remote's repository
// name) and "extras" in a subdirectory declaring a dependency on widgets.
func setupDiscoveryRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runDiscoveryGit(t, dir, "init")
	runDiscoveryGit(t, dir, "config", "user.email", "test@example.com")
	runDiscoveryGit(t, dir, "config", "user.name", "Test User")
	runDiscoveryGit(t, dir, "remote", "add", "origin", "git@github.com:acme/widgets.git")

	writeDiscoveryFile(t, dir, "package.yaml", "package:\n  name: widgets\n  version: 0.2.0\n")
	writeDiscoveryFile(t, dir, "extras/package.yaml",
		"package:\n  name: extras\n  version: 0.1.0\ndependencies:\n  widgets: 0.2.0\n")
	runDiscoveryGit(t, dir, "add", ".")
	runDiscoveryGit(t, dir, "commit", "-m", "initial commit")

	runDiscoveryGit(t, dir, "tag", "v0.1.0")
	runDiscoveryGit(t, dir, "tag", "v0.2.0")
	runDiscoveryGit(t, dir, "tag", "v0.2.0-rc.1")
	runDiscoveryGit(t, dir, "tag", "v0.10.0")

	return dir
}

func runDiscoveryGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
}

func writeDiscoveryFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// TestDiscover exercises the full discovery chain on a configless
// workspace: remote parsing, manifest scan, dependent counting, primary
// inference by repository name, and stable-tag selection by semver order.
func TestDiscover(t *testing.T) {
	dir := setupDiscoveryRepo(t)

	rctx, err := Discover(filepath.Join(dir, "extras"))
	require.NoError(t, err)

	assert.Equal(t, "acme", rctx.Owner)
	assert.Equal(t, "widgets", rctx.RepoName)
	assert.Equal(t, "widgets", rctx.Primary)

	// v0.10.0 beats v0.2.0 by semver, not string, order; the candidate tag
	// is not a stable tag.
	assert.Equal(t, "v0.10.0", rctx.LastStableTag)

	require.Len(t, rctx.Packages, 2)
	extras := rctx.PackageByName("extras")
	require.NotNil(t, extras)
	assert.Equal(t, "extras", extras.Root)
	assert.Equal(t, "0.1.0", extras.Version.String())

	widgets := rctx.PackageByName("widgets")
	require.NotNil(t, widgets)
	assert.Equal(t, ".", widgets.Root)
	assert.Equal(t, 1, widgets.InternalDependents, "extras depends on widgets")
}

// TestDiscoverConfigOverrides verifies that an explicit configuration pins
// both the package list and the primary package.
func TestDiscoverConfigOverrides(t *testing.T) {
	dir := setupDiscoveryRepo(t)
	writeDiscoveryFile(t, dir, ConfigFileName, `{
  // only release the nested package
  "packages": ["extras"],
  "primary": "extras",
}`)

	rctx, err := Discover(dir)
	require.NoError(t, err)

	assert.Equal(t, "extras", rctx.Primary)
	require.Len(t, rctx.Packages, 1)
	assert.Equal(t, "extras", rctx.Packages[0].Name)
}

// TestDiscoverConfiguredPrimaryMissing verifies that a configured primary
// naming an unknown package is a configuration error, not a silent
// fallback.
func TestDiscoverConfiguredPrimaryMissing(t *testing.T) {
	dir := setupDiscoveryRepo(t)
	writeDiscoveryFile(t, dir, ConfigFileName, `{"primary": "nonexistent"}`)

	_, err := Discover(dir)
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

// TestDiscoverPrimaryByDependents verifies the fallback inference when no
// package matches the repository name: most internal dependents wins.
func TestDiscoverPrimaryByDependents(t *testing.T) {
	dir := t.TempDir()
	runDiscoveryGit(t, dir, "init")
	runDiscoveryGit(t, dir, "config", "user.email", "test@example.com")
	runDiscoveryGit(t, dir, "config", "user.name", "Test User")

	writeDiscoveryFile(t, dir, "core/package.yaml", "package:\n  name: core\n  version: 0.1.0\n")
	writeDiscoveryFile(t, dir, "cli/package.yaml",
		"package:\n  name: cli\n  version: 0.1.0\ndependencies:\n  core: 0.1.0\n")
	writeDiscoveryFile(t, dir, "daemon/package.yaml",
		"package:\n  name: daemon\n  version: 0.1.0\ndependencies:\n  core: 0.1.0\n")
	runDiscoveryGit(t, dir, "add", ".")
	runDiscoveryGit(t, dir, "commit", "-m", "initial commit")

	rctx, err := Discover(dir)
	require.NoError(t, err)

	assert.Equal(t, "core", rctx.Primary)
	assert.Empty(t, rctx.Owner, "no remote configured")
	assert.Empty(t, rctx.LastStableTag, "never released")
}

// TestDiscoverScanSkipsArtifactDirs verifies that stale manifests under
// excluded directories never become workspace packages.
func TestDiscoverScanSkipsArtifactDirs(t *testing.T) {
	dir := setupDiscoveryRepo(t)
	writeDiscoveryFile(t, dir, "dist/package.yaml", "package:\n  name: stale\n  version: 9.9.9\n")
	writeDiscoveryFile(t, dir, "target/package.yaml", "package:\n  name: stale2\n  version: 9.9.9\n")

	rctx, err := Discover(dir)
	require.NoError(t, err)

	assert.Nil(t, rctx.PackageByName("stale"))
	assert.Nil(t, rctx.PackageByName("stale2"))
	assert.Len(t, rctx.Packages, 2)
}

// TestDiscoverInvalidVersion verifies that a malformed manifest version
// fails discovery instead of producing a half-usable context.
func TestDiscoverInvalidVersion(t *testing.T) {
	dir := setupDiscoveryRepo(t)
	writeDiscoveryFile(t, dir, "package.yaml", "package:\n  name: widgets\n  version: not-a-version\n")

	_, err := Discover(dir)
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName))
	require.NoError(t, err)
	assert.Empty(t, cfg.Packages)
	assert.Empty(t, cfg.Primary)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}
