package release

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mmr-tortoise/shipyard/internal/changelog"
	"github.com/mmr-tortoise/shipyard/internal/manifest"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// applyChanges mutates the working tree according to the plan and commits
// the result as one release-prep commit:
//
//  1. Each planned package's manifest gets its new version, and a new
//     changelog section is prepended at its package root.
//  2. Every workspace manifest — changed or not — has its dependency
//     declarations on planned packages rewritten to the new versions;
//     manifests are written back only when something actually changed.
//  3. All changes are staged and committed together.
//
// Any manifest failure aborts before the commit, and therefore before any
// tagging.
func (p *Pipeline) applyChanges(pl *model.Plan, primaryVersion string, now time.Time) error {
	changed := make(map[string]string, pl.Len())
	for _, name := range pl.Names() {
		changed[name] = pl.Get(name).NewVersion.String()
	}

	for _, name := range pl.Names() {
		info := p.rctx.PackageByName(name)
		if info == nil {
			return model.NewCLIError(model.ExitManifestError,
				fmt.Sprintf("planned package %s not found in workspace", name))
		}
		pkgPlan := pl.Get(name)

		doc, err := manifest.Load(info.ManifestPath)
		if err != nil {
			return err
		}
		// A manifest without a package section (a pure aggregator) keeps
		// its file untouched; only its dependants' declarations change.
		if manifest.SetPackageVersion(doc, pkgPlan.NewVersion.String()) {
			if err := manifest.Save(info.ManifestPath, doc); err != nil {
				return err
			}
		}

		root := p.rctx.RepoRoot
		if info.Root != "" && info.Root != "." {
			root = filepath.Join(p.rctx.RepoRoot, filepath.FromSlash(info.Root))
		}
		if err := changelog.Prepend(root, name, pkgPlan.NewVersion.String(), pkgPlan.Changes, now); err != nil {
			return model.WrapCLIError(model.ExitManifestError,
				fmt.Sprintf("failed to update changelog for %s", name), err)
		}
	}

	for i := range p.rctx.Packages {
		path := p.rctx.Packages[i].ManifestPath
		doc, err := manifest.Load(path)
		if err != nil {
			return err
		}
		if manifest.UpdateDependencies(doc, changed) {
			if err := manifest.Save(path, doc); err != nil {
				return err
			}
		}
	}

	if err := p.repo.StageAll(); err != nil {
		return err
	}
	return p.repo.Commit(fmt.Sprintf("chore(release): prepare v%s", primaryVersion))
}
