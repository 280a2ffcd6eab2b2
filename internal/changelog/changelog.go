package changelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// FileName is the per-package changelog file name.
const FileName = "CHANGELOG.md"

// group defines one changelog section: its fixed heading and the commit
// kinds it collects. Order here is the rendering order.
type group struct {
	title string
	kinds []model.CommitKind
}

var groups = []group{
	{title: "Breaking Changes", kinds: []model.CommitKind{model.KindBreaking}},
	{title: "Features", kinds: []model.CommitKind{model.KindFeat}},
	{title: "Fixes", kinds: []model.CommitKind{model.KindFix}},
	{title: "Refactor/Perf", kinds: []model.CommitKind{model.KindRefactor, model.KindPerf}},
	{title: "Others", kinds: []model.CommitKind{model.KindDocs, model.KindBuild, model.KindChore, model.KindOther}},
}

// Prepend writes a new dated section for a package release to the top of
// the package's changelog file, preserving all prior content below it. The
// file is created when it does not exist yet.
//
// The section heading format is "## <package> v<version> - <date>" with the
// date rendered as YYYY-MM-DD. Entries are grouped under fixed headers in
// fixed order; a group with no entries is omitted entirely.
func Prepend(packageRoot, name, version string, entries []model.ChangeEntry, date time.Time) error {
	path := filepath.Join(packageRoot, FileName)

	// A missing changelog is normal for a first release; any other read
	// error is a real failure.
	old, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read changelog %s: %w", path, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s v%s - %s\n\n", name, version, date.UTC().Format("2006-01-02"))
	for _, g := range groups {
		writeGroup(&b, g, entries)
	}
	b.WriteString("\n")
	b.Write(old)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, err)
	}
	return nil
}

// writeGroup renders one section group. Entries keep their attributed
// (commit) order; each line is "- <subject> (<short-id>)".
func writeGroup(b *strings.Builder, g group, entries []model.ChangeEntry) {
	var selected []model.ChangeEntry
	for _, e := range entries {
		for _, k := range g.kinds {
			if e.Kind == k {
				selected = append(selected, e)
				break
			}
		}
	}
	if len(selected) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n", g.title)
	for _, e := range selected {
		fmt.Fprintf(b, "- %s (%s)\n", e.Subject, e.ShortSHA)
	}
	b.WriteString("\n")
}
