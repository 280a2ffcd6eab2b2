package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// packageRoot pairs a package's subtree root with its name, pre-sorted for
// longest-prefix matching.
type packageRoot struct {
	root string
	name string
}

// Attribute walks the commits since the base reference (oldest first),
// classifies each commit, and maps every touched file path to the package
// whose subtree contains it. The result maps package names to their
// ordered change entries.
//
// Attribution uses longest-prefix matching over package roots: a file under
// a nested package's root is attributed to the nested package, not to an
// enclosing one. Multiple files of one commit mapping to the same package
// collapse into a single ChangeEntry.
func Attribute(repo *gitrepo.Repo, ctx *model.ReleaseContext) (map[string][]model.ChangeEntry, error) {
	base := ""
	if ctx.LastStableTag != "" {
		// Resolve the tag up front so a dangling or misspelled base tag
		// fails the run before any history walking.
		sha, err := repo.ResolveCommit("refs/tags/" + ctx.LastStableTag)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGitError,
				fmt.Sprintf("failed to resolve base tag %s", ctx.LastStableTag), err)
		}
		base = sha
	}

	roots := sortedRoots(ctx.Packages)

	commits, err := repo.CommitsSince(base)
	if err != nil {
		return nil, err
	}

	changes := make(map[string][]model.ChangeEntry)
	for _, c := range commits {
		kind, breaking := Classify(c.Subject, c.Message)

		paths, err := repo.DiffPathsFirstParent(c)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGitError,
				fmt.Sprintf("failed to diff commit %s", c.ShortSHA), err)
		}

		// Deduplicate: one entry per (commit, package) no matter how many
		// files of the commit land in the same package.
		touched := make(map[string]bool)
		for _, path := range paths {
			if name, ok := packageForPath(roots, path); ok {
				touched[name] = true
			}
		}

		for name := range touched {
			changes[name] = append(changes[name], model.ChangeEntry{
				Kind:     kind,
				Subject:  c.Subject,
				ShortSHA: c.ShortSHA,
				Breaking: breaking,
			})
		}
	}
	return changes, nil
}

// sortedRoots orders package roots by descending path depth (then by
// descending length) so that the first prefix match is always the deepest
// owning package.
func sortedRoots(packages []model.PackageInfo) []packageRoot {
	roots := make([]packageRoot, 0, len(packages))
	for _, p := range packages {
		roots = append(roots, packageRoot{root: p.Root, name: p.Name})
	}
	sort.Slice(roots, func(i, j int) bool {
		di, dj := pathDepth(roots[i].root), pathDepth(roots[j].root)
		if di != dj {
			return di > dj
		}
		return len(roots[i].root) > len(roots[j].root)
	})
	return roots
}

// pathDepth counts the path components of a repository-relative root.
// The repository root itself ("." or "") has depth zero, so it always
// matches last.
func pathDepth(root string) int {
	if root == "" || root == "." {
		return 0
	}
	return strings.Count(root, "/") + 1
}

// packageForPath resolves the owning package of a repository-relative file
// path, or reports false when no package root contains it.
func packageForPath(roots []packageRoot, path string) (string, bool) {
	for _, r := range roots {
		if r.root == "" || r.root == "." {
			return r.name, true
		}
		if path == r.root || strings.HasPrefix(path, r.root+"/") {
			return r.name, true
		}
	}
	return "", false
}
