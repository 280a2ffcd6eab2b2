package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mmr-tortoise/shipyard/internal/github"
	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
	"github.com/mmr-tortoise/shipyard/internal/plan"
)

// DefaultArtifactRoot is the artifact directory under the repository root
// when no override is given. Each run creates one subdirectory per
// candidate tag below it.
const DefaultArtifactRoot = "dist/shipyard"

// pushRemote is the remote the branch and candidate tag are pushed to.
const pushRemote = "origin"

// LogFunc receives verbose progress output. The CLI wires its --verbose
// logger in here; a nil LogFunc silences the pipeline.
type LogFunc func(format string, args ...any)

// Options control one pipeline run.
type Options struct {
	// DryRun computes and reports the plan without mutating anything.
	DryRun bool

	// LocalOnly tags and packages locally but skips pushing, the
	// prerelease entry, and uploads.
	LocalOnly bool

	// ArtifactDir overrides the artifact root directory. Relative paths
	// are resolved against the repository root.
	ArtifactDir string

	// Host is the release-host client. When nil (no credentials), the
	// whole tag/package/upload phase is skipped after a warning and only
	// version/changelog mutation plus the local commit happen.
	Host *github.Client

	// Now supplies the changelog date; defaults to time.Now.
	Now func() time.Time

	// Log receives verbose progress messages.
	Log LogFunc
}

// Pipeline runs the release-candidate preparation sequence against one
// repository checkout. The checkout is treated as single-writer for the
// duration of the run; the only cross-run safety net is the candidate-tag
// idempotency guard.
type Pipeline struct {
	repo *gitrepo.Repo
	rctx *model.ReleaseContext
}

// New creates a Pipeline for the given repository and release context.
func New(repo *gitrepo.Repo, rctx *model.ReleaseContext) *Pipeline {
	return &Pipeline{repo: repo, rctx: rctx}
}

// Run executes the pipeline: plan, apply, commit, candidate tag, package,
// validate, upload. Each stage completes before the next starts, and every
// fatal condition aborts the remainder of the sequence. There is no
// rollback: a failure after tagging leaves the commit and tag in place for
// the operator to resolve.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	pl, err := plan.Compute(p.repo, p.rctx)
	if err != nil {
		return nil, err
	}
	p.logf(opts, "plan computed: %d changed package(s)", pl.Len())

	primaryPlan := pl.Get(p.rctx.Primary)
	if primaryPlan == nil {
		return nil, model.NewCLIError(model.ExitNoChanges,
			fmt.Sprintf("primary package %s has no changes since the base tag; nothing to release", p.rctx.Primary))
	}

	report := buildReport(p.rctx, pl)

	if opts.DryRun {
		p.logf(opts, "dry run: skipping apply and candidate steps")
		return report, nil
	}

	if err := p.applyChanges(pl, primaryPlan.NewVersion.String(), now()); err != nil {
		return nil, err
	}
	p.logf(opts, "applied version and changelog changes, committed release prep")

	if opts.Host == nil && !opts.LocalOnly {
		p.logf(opts, "warning: no release-host token configured; skipping tag, packaging, and upload")
		return report, nil
	}

	tag, rcN, err := NextCandidate(p.repo, primaryPlan.NewVersion)
	if err != nil {
		return nil, err
	}
	p.logf(opts, "candidate tag: %s (rc %d)", tag, rcN)

	if err := p.ensureTagAbsent(tag); err != nil {
		return nil, err
	}

	if err := p.repo.CreateAnnotatedTag(tag, "shipyard prerelease "+tag); err != nil {
		return nil, err
	}

	if !opts.LocalOnly {
		branch, err := p.repo.CurrentBranch()
		if err != nil {
			return nil, err
		}
		// Tag and branch pushes are deliberately not retried: a push
		// failure needs operator attention, not a blind retry against
		// remote state that may have moved.
		if err := p.repo.Push(pushRemote, branch); err != nil {
			return nil, err
		}
		if err := p.repo.Push(pushRemote, "refs/tags/"+tag); err != nil {
			return nil, err
		}
		if err := opts.Host.EnsurePrerelease(ctx, tag); err != nil {
			return nil, model.WrapCLIError(model.ExitUploadError,
				fmt.Sprintf("failed to ensure prerelease for %s", tag), err)
		}
		p.logf(opts, "pushed %s and %s, prerelease entry ready", branch, tag)
	}

	runDir := p.artifactRunDir(opts.ArtifactDir, tag)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitPackagingError,
			fmt.Sprintf("failed to create artifact directory %s", runDir), err)
	}

	packaged, err := p.packagePlanned(pl, tag, rcN, runDir)
	if err != nil {
		return nil, err
	}
	p.logf(opts, "packaged %d package(s) into %s", len(packaged), runDir)

	if err := Validate(pl, packaged); err != nil {
		return nil, err
	}

	if !opts.LocalOnly {
		files := collectFiles(packaged)
		if err := opts.Host.UploadAssets(ctx, tag, files); err != nil {
			return nil, err
		}
		p.logf(opts, "uploaded %d asset(s)", len(files))
	}

	report.Tag = tag
	report.ArtifactDir = runDir
	return report, nil
}

// artifactRunDir resolves the per-run artifact directory: the artifact
// root (override or default) plus one subdirectory named after the tag.
func (p *Pipeline) artifactRunDir(override, tag string) string {
	root := override
	switch {
	case root == "":
		root = filepath.Join(p.rctx.RepoRoot, filepath.FromSlash(DefaultArtifactRoot))
	case !filepath.IsAbs(root):
		root = filepath.Join(p.rctx.RepoRoot, root)
	}
	// Tags cannot normally contain separators, but a run directory must
	// never escape the artifact root.
	return filepath.Join(root, strings.ReplaceAll(tag, "/", "_"))
}

// collectFiles flattens the packaged artifact files into one sorted list
// for deterministic upload order.
func collectFiles(packaged []model.PackagedPackage) []string {
	var files []string
	for _, pkg := range packaged {
		files = append(files, pkg.Files...)
	}
	sort.Strings(files)
	return files
}

func (p *Pipeline) logf(opts Options, format string, args ...any) {
	if opts.Log != nil {
		opts.Log(format, args...)
	}
}
