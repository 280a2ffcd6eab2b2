package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/manifest"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// stableTagPattern matches stable release tags: vX.Y.Z with no suffix.
var stableTagPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// remoteURLPatterns extract owner and repository name from the two GitHub
// remote URL forms (SSH and HTTPS), with an optional .git suffix.
var remoteURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`),
	regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?$`),
}

// scanSkipDirs are directory names excluded from the manifest scan.
var scanSkipDirs = map[string]bool{
	".git":         true,
	"dist":         true,
	"target":       true,
	"node_modules": true,
}

// Discover builds the ReleaseContext for the repository containing
// startDir: repository root, owner and name from the remote URL, the
// workspace package list with versions and dependent counts, the primary
// package, and the last stable tag.
func Discover(startDir string) (*model.ReleaseContext, error) {
	root, err := gitrepo.DiscoverRoot(startDir)
	if err != nil {
		return nil, err
	}
	repo := gitrepo.New(root)

	cfg, err := LoadConfig(filepath.Join(root, ConfigFileName))
	if err != nil {
		return nil, err
	}

	owner, repoName := inferRemote(repo, root)

	packages, err := collectPackages(root, cfg, repoName)
	if err != nil {
		return nil, err
	}

	primary, err := inferPrimary(packages, cfg, repoName)
	if err != nil {
		return nil, err
	}

	lastStable, err := findLastStableTag(repo)
	if err != nil {
		return nil, err
	}

	return &model.ReleaseContext{
		RepoRoot:      root,
		Owner:         owner,
		RepoName:      repoName,
		Packages:      packages,
		Primary:       primary,
		LastStableTag: lastStable,
	}, nil
}

// inferRemote parses owner and repository name from the "origin" remote,
// falling back to the first configured remote, and finally to the
// repository directory name. A repository without a recognizable remote
// can still plan and package locally, so this never fails the run.
func inferRemote(repo *gitrepo.Repo, root string) (owner, name string) {
	name = filepath.Base(root)

	remotes, err := repo.Remotes()
	if err != nil || len(remotes) == 0 {
		return "", name
	}
	chosen := remotes[0]
	for _, r := range remotes {
		if r == "origin" {
			chosen = r
			break
		}
	}
	url, err := repo.RemoteURL(chosen)
	if err != nil {
		return "", name
	}
	for _, re := range remoteURLPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], m[2]
		}
	}
	return "", name
}

// collectPackages reads every workspace manifest into a PackageInfo list.
// The package directories come from the configuration when given, or from
// a tree scan for manifest files otherwise. Dependent counts are computed
// from dependency declarations that name another workspace package.
func collectPackages(root string, cfg *Config, repoName string) ([]model.PackageInfo, error) {
	dirs := cfg.Packages
	if len(dirs) == 0 {
		scanned, err := scanManifestDirs(root)
		if err != nil {
			return nil, err
		}
		dirs = scanned
	}
	if len(dirs) == 0 {
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("no %s manifests found in workspace", manifest.FileName))
	}

	var packages []model.PackageInfo
	for _, dir := range dirs {
		rel := filepath.ToSlash(filepath.Clean(dir))
		manifestPath := filepath.Join(root, filepath.FromSlash(rel), manifest.FileName)

		doc, err := manifest.Load(manifestPath)
		if err != nil {
			return nil, err
		}

		name, ok := manifest.PackageName(doc)
		if !ok {
			// A nameless package section cannot participate in
			// attribution; fall back to a path-derived name so
			// aggregator-style manifests still count as packages.
			if rel == "." {
				name = repoName
			} else {
				name = filepath.Base(rel)
			}
		}

		versionStr, ok := manifest.PackageVersion(doc)
		if !ok {
			return nil, model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("manifest %s has no package version", manifestPath))
		}
		version, err := semver.NewVersion(versionStr)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("manifest %s has invalid version %q", manifestPath, versionStr), err)
		}

		packages = append(packages, model.PackageInfo{
			Name:         name,
			Version:      version,
			ManifestPath: manifestPath,
			Root:         rel,
		})
	}

	countDependents(root, packages)

	sort.Slice(packages, func(i, j int) bool { return packages[i].Name < packages[j].Name })
	return packages, nil
}

// scanManifestDirs walks the tree for manifest files, returning their
// directories relative to the root.
func scanManifestDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if scanSkipDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != manifest.FileName {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		dirs = append(dirs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to scan workspace", err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// countDependents fills InternalDependents: for every workspace manifest,
// each dependency declaration naming another workspace package counts as
// one dependent for that package.
func countDependents(root string, packages []model.PackageInfo) {
	index := make(map[string]int, len(packages))
	for i := range packages {
		index[packages[i].Name] = i
	}
	for i := range packages {
		doc, err := manifest.Load(packages[i].ManifestPath)
		if err != nil {
			// Discovery already loaded this manifest once; a failure
			// here would have surfaced there.
			continue
		}
		for _, dep := range manifest.DependencyNames(doc) {
			if j, ok := index[dep]; ok && j != i {
				packages[j].InternalDependents++
			}
		}
	}
}

// inferPrimary picks the primary package: an explicit configuration value
// wins (and must exist), then a package named after the repository, then
// the package with the most internal dependents, ties broken
// lexicographically.
func inferPrimary(packages []model.PackageInfo, cfg *Config, repoName string) (string, error) {
	if cfg.Primary != "" {
		for _, p := range packages {
			if p.Name == cfg.Primary {
				return cfg.Primary, nil
			}
		}
		return "", model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("configured primary package %q not found in workspace", cfg.Primary))
	}

	for _, p := range packages {
		if p.Name == repoName {
			return p.Name, nil
		}
	}

	if len(packages) == 0 {
		return "", model.NewCLIError(model.ExitConfigError, "workspace has no packages")
	}
	best := packages[0]
	for _, p := range packages[1:] {
		if p.InternalDependents > best.InternalDependents ||
			(p.InternalDependents == best.InternalDependents && p.Name < best.Name) {
			best = p
		}
	}
	return best.Name, nil
}

// findLastStableTag returns the highest stable tag (vX.Y.Z) by semantic
// version order, or empty when the repository has never been released.
func findLastStableTag(repo *gitrepo.Repo) (string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", err
	}
	var best *semver.Version
	bestTag := ""
	for _, tag := range tags {
		if !stableTagPattern.MatchString(tag) {
			continue
		}
		v, err := semver.NewVersion(strings.TrimPrefix(tag, "v"))
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestTag = tag
		}
	}
	return bestTag, nil
}
