package release

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

func planWith(names ...string) *model.Plan {
	p := model.NewPlan()
	for _, n := range names {
		p.Add(n, &model.PackagePlan{NewVersion: semver.MustParse("0.2.0")})
	}
	return p
}

func fullArtifacts(name string) model.PackagedPackage {
	base := "/out/" + name + "-0.2.0-rc1-src"
	return model.PackagedPackage{
		Name: name,
		Files: []string{
			base + ".tar.gz",
			base + ".tar.gz.sha512",
			base + ".zip",
			base + ".zip.sha512",
		},
	}
}

func TestValidateMatchingSet(t *testing.T) {
	pl := planWith("core", "tools")
	packaged := []model.PackagedPackage{fullArtifacts("tools"), fullArtifacts("core")}

	assert.NoError(t, Validate(pl, packaged))
}

func TestValidateMissingPackage(t *testing.T) {
	pl := planWith("core", "tools")
	packaged := []model.PackagedPackage{fullArtifacts("core")}

	err := Validate(pl, packaged)
	require.Error(t, err)

	cliErr, ok := err.(*model.CLIError)
	require.True(t, ok)
	assert.Equal(t, model.ExitValidationError, cliErr.Code)
}

func TestValidateExtraPackage(t *testing.T) {
	pl := planWith("core")
	packaged := []model.PackagedPackage{fullArtifacts("core"), fullArtifacts("stray")}

	err := Validate(pl, packaged)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match plan")
}

func TestValidateMissingArchiveVariant(t *testing.T) {
	pl := planWith("core")
	packaged := []model.PackagedPackage{{
		Name: "core",
		Files: []string{
			"/out/core-0.2.0-rc1-src.tar.gz",
			"/out/core-0.2.0-rc1-src.tar.gz.sha512",
		},
	}}

	err := Validate(pl, packaged)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing archive variants")
}
