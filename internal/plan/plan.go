package plan

import (
	"github.com/Masterminds/semver/v3"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// Compute builds the release plan: it attributes the commit range since the
// base tag to packages, decides each changed package's version bump, and
// returns the resulting Plan. Packages with zero attributed changes never
// appear in the plan.
//
// Compute performs no writes; whether the plan is acceptable (in
// particular, whether the primary package is present) is the caller's
// decision.
func Compute(repo *gitrepo.Repo, ctx *model.ReleaseContext) (*model.Plan, error) {
	changes, err := Attribute(repo, ctx)
	if err != nil {
		return nil, err
	}

	p := model.NewPlan()
	for _, pkg := range ctx.Packages {
		entries := changes[pkg.Name]
		if len(entries) == 0 {
			continue
		}
		bump := DecideBump(pkg.Version, entries)
		next := NextVersion(pkg.Version, bump)
		p.Add(pkg.Name, &model.PackagePlan{
			NewVersion: next,
			Changes:    entries,
		})
	}
	return p, nil
}

// DecideBump applies the bump policy to a package's attributed changes.
//
// Post-1.0 (major >= 1): any breaking change bumps major; otherwise any
// feature bumps minor; otherwise patch.
//
// Pre-1.0 (major == 0): any breaking change bumps minor; everything else —
// features included — bumps patch. The pre-stable epoch treats minor as
// its breaking axis, matching how 0.x versions are consumed.
func DecideBump(current *semver.Version, changes []model.ChangeEntry) model.BumpKind {
	breaking := false
	feature := false
	for _, c := range changes {
		if c.Breaking {
			breaking = true
		}
		if c.Kind == model.KindFeat {
			feature = true
		}
	}

	if current.Major() >= 1 {
		if breaking {
			return model.BumpMajor
		}
		if feature {
			return model.BumpMinor
		}
		return model.BumpPatch
	}

	if breaking {
		return model.BumpMinor
	}
	return model.BumpPatch
}

// NextVersion applies a bump to a version. The semver increment methods
// reset the lower components (IncMajor zeroes minor and patch, IncMinor
// zeroes patch) and drop any prerelease suffix.
func NextVersion(current *semver.Version, bump model.BumpKind) *semver.Version {
	var next semver.Version
	switch bump {
	case model.BumpMajor:
		next = current.IncMajor()
	case model.BumpMinor:
		next = current.IncMinor()
	default:
		next = current.IncPatch()
	}
	return &next
}
