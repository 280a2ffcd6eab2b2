package release

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mmr-tortoise/shipyard/internal/archive"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// artifactBaseName derives the artifact file stem for a package. The
// repository name always leads; the package name is inserted only for
// non-primary packages, so the primary package's artifacts read as the
// repository's own.
func (p *Pipeline) artifactBaseName(pkgName, version string, rcN int) string {
	if pkgName == p.rctx.Primary {
		return fmt.Sprintf("%s-%s-rc%d-src", p.rctx.RepoName, version, rcN)
	}
	return fmt.Sprintf("%s-%s-%s-rc%d-src", p.rctx.RepoName, pkgName, version, rcN)
}

// packagePlanned builds the artifact set for every planned package from
// the tagged commit's tree: one tar.gz, one zip, and a checksum sidecar
// per archive. The first packaging error aborts the remaining packages.
func (p *Pipeline) packagePlanned(pl *model.Plan, tag string, rcN int, outDir string) ([]model.PackagedPackage, error) {
	var packaged []model.PackagedPackage
	for _, name := range pl.Names() {
		info := p.rctx.PackageByName(name)
		if info == nil {
			return nil, model.NewCLIError(model.ExitPackagingError,
				fmt.Sprintf("planned package %s not found in workspace", name))
		}
		base := p.artifactBaseName(name, pl.Get(name).NewVersion.String(), rcN)
		tarPath := filepath.Join(outDir, base+".tar.gz")
		zipPath := filepath.Join(outDir, base+".zip")

		if err := archive.BuildFromTree(p.repo, tag, info.Root, tarPath, zipPath); err != nil {
			return nil, err
		}

		files := []string{tarPath, zipPath}
		for _, f := range []string{tarPath, zipPath} {
			sidecar, err := archive.WriteChecksumSidecar(f)
			if err != nil {
				return nil, model.WrapCLIError(model.ExitPackagingError,
					fmt.Sprintf("failed to write checksum for %s", f), err)
			}
			files = append(files, sidecar)
		}
		sort.Strings(files)

		packaged = append(packaged, model.PackagedPackage{Name: name, Files: files})
	}
	return packaged, nil
}
