// prerelease.go implements the "shipyard prerelease" command — the core
// release-candidate pipeline.
//
// Orchestration steps:
//  1. Discover the release context (repo root, packages, primary, base tag)
//  2. Require a clean working tree
//  3. Run the pipeline: plan → apply → commit → tag → package → validate →
//     upload (degrading gracefully when no release-host token is set)
//  4. Output the report (text or JSON)
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipyard/internal/github"
	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
	"github.com/mmr-tortoise/shipyard/internal/release"
	"github.com/mmr-tortoise/shipyard/internal/workspace"
)

// tokenEnvVar names the environment variable holding the release-host
// token. The CLI layer is the only place that reads it; everything below
// receives the token explicitly.
const tokenEnvVar = "SHIPYARD_GITHUB_TOKEN"

// prereleaseFlags holds the flag values for the prerelease command.
type prereleaseFlags struct {
	dryRun      bool   // --dry-run: plan only, no mutation
	artifactDir string // --artifact-dir: artifact root override
	localAssets bool   // --local-assets: tag and package locally, skip push/upload
}

// NewPrereleaseCommand creates the "prerelease" cobra command.
func NewPrereleaseCommand() *cobra.Command {
	flags := &prereleaseFlags{}

	cmd := &cobra.Command{
		Use:   "prerelease",
		Short: "Bump versions, update changelogs, tag an RC, package and upload",
		Long: `Prepare a release candidate for the current repository.

The command computes which packages changed since the last stable tag and
by how much their versions must increase, rewrites manifests and
changelogs, commits the result, creates the next candidate tag, packages
the affected sources from the tagged tree, and uploads the checksummed
archives to the release host.

Set ` + tokenEnvVar + ` to enable tagging, packaging, and upload; without
it only the version/changelog mutation and the local commit happen.

Examples:
  shipyard prerelease
  shipyard prerelease --dry-run
  shipyard prerelease --local-assets --artifact-dir out`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrerelease(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Compute and print the plan without mutating anything")
	cmd.Flags().StringVar(&flags.artifactDir, "artifact-dir", "", "Artifact output directory (default: dist/shipyard)")
	cmd.Flags().BoolVar(&flags.localAssets, "local-assets", false, "Skip pushing and uploads; produce local artifacts only")

	return cmd
}

// runPrerelease is the orchestration function for the prerelease command.
func runPrerelease(ctx context.Context, flags *prereleaseFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	rctx, err := workspace.Discover(cwd)
	if err != nil {
		return err
	}
	VerboseLog("workspace: %s/%s, %d package(s), primary=%s, base=%s",
		rctx.Owner, rctx.RepoName, len(rctx.Packages), rctx.Primary, orNone(rctx.LastStableTag))

	repo := gitrepo.New(rctx.RepoRoot)

	// The pipeline commits the mutation set itself; pre-existing dirt
	// would be swept into the release commit, so refuse to start on a
	// dirty tree. Dry runs mutate nothing and may inspect any state.
	if !flags.dryRun {
		clean, err := repo.IsClean()
		if err != nil {
			return err
		}
		if !clean {
			return model.NewCLIError(model.ExitGitError, "working tree is not clean")
		}
	}

	var host *github.Client
	if token := os.Getenv(tokenEnvVar); token != "" {
		host = github.NewClient(github.Config{
			Token: token,
			Owner: rctx.Owner,
			Repo:  rctx.RepoName,
		})
	} else if !flags.dryRun {
		fmt.Fprintf(os.Stderr, "Warning: %s is not set; skipping tag, packaging, and upload\n", tokenEnvVar)
	}

	report, err := release.New(repo, rctx).Run(ctx, release.Options{
		DryRun:      flags.dryRun,
		LocalOnly:   flags.localAssets,
		ArtifactDir: flags.artifactDir,
		Host:        host,
		Log:         VerboseLog,
	})
	if err != nil {
		return err
	}

	return printReport(report)
}

// printReport renders a pipeline report in the selected output format.
func printReport(report *release.Report) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode report", err)
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(report.RenderText())
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
