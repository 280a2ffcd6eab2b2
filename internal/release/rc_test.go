package release

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

func TestFormatCandidateTag(t *testing.T) {
	assert.Equal(t, "v0.2.0-rc.1", FormatCandidateTag(semver.MustParse("0.2.0"), 1))
	assert.Equal(t, "v1.10.3-rc.12", FormatCandidateTag(semver.MustParse("1.10.3"), 12))
}

// TestNextCandidate verifies the numbering scheme: max observed N for the
// exact base version, plus one. Candidate tags of other versions and
// non-candidate tags are ignored.
func TestNextCandidate(t *testing.T) {
	dir := setupTaggedRepo(t, []string{
		"v0.2.0-rc.1",
		"v0.2.0-rc.3",
		"v0.3.0-rc.9",
		"v0.2.0",
		"some-feature-tag",
	})
	repo := gitrepo.New(dir)

	tag, n, err := NextCandidate(repo, semver.MustParse("0.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "v0.2.0-rc.4", tag)
	assert.Equal(t, 4, n)
}

func TestNextCandidateFirst(t *testing.T) {
	dir := setupTaggedRepo(t, nil)
	repo := gitrepo.New(dir)

	tag, n, err := NextCandidate(repo, semver.MustParse("0.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "v0.2.0-rc.1", tag)
	assert.Equal(t, 1, n)
}

// TestEnsureTagAbsent verifies the idempotency guard: a pre-existing
// candidate tag fails the run with the tag-exists exit code instead of
// re-tagging over a partial prior run.
func TestEnsureTagAbsent(t *testing.T) {
	dir := setupTaggedRepo(t, []string{"v0.2.0-rc.1"})
	p := New(gitrepo.New(dir), &model.ReleaseContext{RepoRoot: dir})

	err := p.ensureTagAbsent("v0.2.0-rc.1")
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitTagExists, cliErr.Code)

	assert.NoError(t, p.ensureTagAbsent("v0.2.0-rc.2"))
}

// setupTaggedRepo creates a single-commit repository carrying the given
// lightweight tags.
func setupTaggedRepo(t *testing.T, tags []string) string {
	t.Helper()

	dir := t.TempDir()
	runReleaseGit(t, dir, "init")
	runReleaseGit(t, dir, "config", "user.email", "test@example.com")
	runReleaseGit(t, dir, "config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# fixture\n"), 0644))
	runReleaseGit(t, dir, "add", ".")
	runReleaseGit(t, dir, "commit", "-m", "initial commit")

	for _, tag := range tags {
		runReleaseGit(t, dir, "tag", tag)
	}
	return dir
}

func runReleaseGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}
