package release

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// PackageReport summarizes one package's planned release.
type PackageReport struct {
	// Name is the package name.
	Name string `json:"name"`

	// OldVersion is the version before the run.
	OldVersion string `json:"oldVersion"`

	// NewVersion is the version decided by the planner.
	NewVersion string `json:"newVersion"`

	// Changes is the number of attributed change entries.
	Changes int `json:"changes"`
}

// Report is the pipeline's outcome summary, rendered for humans by
// RenderText and serialized as-is for --json output.
type Report struct {
	// Primary is the primary package name.
	Primary string `json:"primary"`

	// Tag is the created candidate tag; empty for dry runs and degraded
	// (token-less) runs.
	Tag string `json:"tag,omitempty"`

	// ArtifactDir is the per-run artifact directory; empty when nothing
	// was packaged.
	ArtifactDir string `json:"artifactDir,omitempty"`

	// Packages lists the planned packages in lexicographic order.
	Packages []PackageReport `json:"packages"`
}

// buildReport captures the plan summary before any mutation, so even a
// dry run can render the full decision.
func buildReport(rctx *model.ReleaseContext, pl *model.Plan) *Report {
	r := &Report{Primary: rctx.Primary}
	for _, name := range pl.Names() {
		pkgPlan := pl.Get(name)
		old := ""
		if info := rctx.PackageByName(name); info != nil {
			old = info.Version.String()
		}
		r.Packages = append(r.Packages, PackageReport{
			Name:       name,
			OldVersion: old,
			NewVersion: pkgPlan.NewVersion.String(),
			Changes:    len(pkgPlan.Changes),
		})
	}
	return r
}

// RenderText renders the report for terminal output.
func (r *Report) RenderText() string {
	var b strings.Builder
	if r.Tag != "" {
		fmt.Fprintf(&b, "candidate: %s\n", r.Tag)
	}
	if r.ArtifactDir != "" {
		fmt.Fprintf(&b, "artifacts: %s\n", r.ArtifactDir)
	}
	for _, pkg := range r.Packages {
		marker := " "
		if pkg.Name == r.Primary {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s %s -> %s (%d change(s))\n",
			marker, pkg.Name, pkg.OldVersion, pkg.NewVersion, pkg.Changes)
	}
	return strings.TrimRight(b.String(), "\n")
}
