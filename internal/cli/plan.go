// plan.go implements the "shipyard plan" command — a read-only view of
// what a prerelease run would do.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
	"github.com/mmr-tortoise/shipyard/internal/release"
	"github.com/mmr-tortoise/shipyard/internal/workspace"
)

// NewPlanCommand creates the "plan" cobra command. It is equivalent to
// "prerelease --dry-run" but reads better in scripts and CI logs.
func NewPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the version bumps a prerelease run would apply",
		Long: `Compute and print the release plan without touching the repository.

The plan lists every package changed since the last stable tag, its
current and next version, and the commits attributed to it. Nothing is
written, committed, tagged, or uploaded.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context())
		},
	}
}

func runPlan(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	rctx, err := workspace.Discover(cwd)
	if err != nil {
		return err
	}

	report, err := release.New(gitrepo.New(rctx.RepoRoot), rctx).Run(ctx, release.Options{
		DryRun: true,
		Log:    VerboseLog,
	})
	if err != nil {
		return err
	}

	return printReport(report)
}
