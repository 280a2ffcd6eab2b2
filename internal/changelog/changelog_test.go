package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

var fixedDate = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// TestPrependCreatesFile verifies the first release of a package: the file
// is created, the heading carries the package, version, and date, and only
// non-empty groups are rendered.
func TestPrependCreatesFile(t *testing.T) {
	dir := t.TempDir()

	entries := []model.ChangeEntry{
		{Kind: model.KindFeat, Subject: "feat: add planning", ShortSHA: "abc1234"},
		{Kind: model.KindFix, Subject: "fix: correct off-by-one", ShortSHA: "def5678"},
	}
	require.NoError(t, Prepend(dir, "core", "0.2.0", entries, fixedDate))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	got := string(data)

	assert.Contains(t, got, "## core v0.2.0 - 2026-03-14")
	assert.Contains(t, got, "### Features\n- feat: add planning (abc1234)")
	assert.Contains(t, got, "### Fixes\n- fix: correct off-by-one (def5678)")
	assert.NotContains(t, got, "Breaking Changes")
	assert.NotContains(t, got, "Others")
}

// TestPrependKeepsExistingContent verifies that a new release section lands
// above the previous one with the old content intact.
func TestPrependKeepsExistingContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	old := "## core v0.1.0 - 2026-01-01\n\n### Features\n- feat: first release (1111111)\n\n"
	require.NoError(t, os.WriteFile(path, []byte(old), 0644))

	entries := []model.ChangeEntry{
		{Kind: model.KindBreaking, Subject: "refactor!: new layout", ShortSHA: "2222222", Breaking: true},
	}
	require.NoError(t, Prepend(dir, "core", "0.2.0", entries, fixedDate))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)

	newIdx := strings.Index(got, "## core v0.2.0")
	oldIdx := strings.Index(got, "## core v0.1.0")
	require.GreaterOrEqual(t, newIdx, 0)
	require.Greater(t, oldIdx, newIdx, "new section must precede the old one")
	assert.Contains(t, got, "- feat: first release (1111111)")
	assert.Contains(t, got, "### Breaking Changes\n- refactor!: new layout (2222222)")
}

// TestPrependGroupOrder verifies the fixed rendering order of the groups
// and that entries keep their commit order within a group.
func TestPrependGroupOrder(t *testing.T) {
	dir := t.TempDir()

	entries := []model.ChangeEntry{
		{Kind: model.KindChore, Subject: "chore: tidy", ShortSHA: "aaaaaaa"},
		{Kind: model.KindPerf, Subject: "perf: faster walk", ShortSHA: "bbbbbbb"},
		{Kind: model.KindFeat, Subject: "feat: one", ShortSHA: "ccccccc"},
		{Kind: model.KindBreaking, Subject: "feat!: drop api", ShortSHA: "ddddddd", Breaking: true},
		{Kind: model.KindFeat, Subject: "feat: two", ShortSHA: "eeeeeee"},
		{Kind: model.KindRefactor, Subject: "refactor: split", ShortSHA: "fffffff"},
	}
	require.NoError(t, Prepend(dir, "core", "1.0.0", entries, fixedDate))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	got := string(data)

	order := []string{"### Breaking Changes", "### Features", "### Refactor/Perf", "### Others"}
	last := -1
	for _, heading := range order {
		idx := strings.Index(got, heading)
		require.GreaterOrEqual(t, idx, 0, "missing %s", heading)
		assert.Greater(t, idx, last, "%s out of order", heading)
		last = idx
	}

	// Within Features, commit order is preserved.
	assert.Less(t, strings.Index(got, "feat: one"), strings.Index(got, "feat: two"))
	// Refactor and perf share one group, in commit order.
	assert.Less(t, strings.Index(got, "perf: faster walk"), strings.Index(got, "refactor: split"))
}
