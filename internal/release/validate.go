package release

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// Validate cross-checks the packaged artifact set against the plan before
// anything is uploaded: the packaged package names must equal the plan's
// key set exactly, and every package must have both archive kinds. Any
// mismatch — missing, extra, or incomplete — is fatal, so uploads never
// proceed with a partial or over-complete set.
func Validate(pl *model.Plan, packaged []model.PackagedPackage) error {
	expected := pl.Names()

	actual := make([]string, 0, len(packaged))
	for _, pkg := range packaged {
		actual = append(actual, pkg.Name)
	}
	sort.Strings(actual)

	if !equalNames(expected, actual) {
		return model.NewCLIError(model.ExitValidationError,
			fmt.Sprintf("packaged packages [%s] do not match plan [%s]",
				strings.Join(actual, ", "), strings.Join(expected, ", ")))
	}

	for _, pkg := range packaged {
		hasTar := pkg.HasArchiveSuffix(".tar.gz")
		hasZip := pkg.HasArchiveSuffix(".zip")
		if !hasTar || !hasZip {
			return model.NewCLIError(model.ExitValidationError,
				fmt.Sprintf("package %s is missing archive variants (tar.gz=%t, zip=%t)",
					pkg.Name, hasTar, hasZip))
		}
	}
	return nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
