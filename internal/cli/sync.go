// sync.go implements the "shipyard sync" command, which copies a
// candidate run's packaged artifacts to an S3-compatible mirror.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipyard/internal/mirror"
	"github.com/mmr-tortoise/shipyard/internal/model"
	"github.com/mmr-tortoise/shipyard/internal/release"
	"github.com/mmr-tortoise/shipyard/internal/workspace"
)

// Mirror connection settings come from the environment (or a .env file
// loaded by main). Only the composition root reads them; the mirror
// package receives an explicit Config.
const (
	mirrorEndpointEnvVar  = "SHIPYARD_MIRROR_ENDPOINT"
	mirrorRegionEnvVar    = "SHIPYARD_MIRROR_REGION"
	mirrorAccessKeyEnvVar = "SHIPYARD_MIRROR_ACCESS_KEY"
	mirrorSecretKeyEnvVar = "SHIPYARD_MIRROR_SECRET_KEY"
	mirrorBucketEnvVar    = "SHIPYARD_MIRROR_BUCKET"
	mirrorUseSSLEnvVar    = "SHIPYARD_MIRROR_USE_SSL"
)

// candidateTagPattern matches a release-candidate tag and captures the
// stable version and the candidate number.
var candidateTagPattern = regexp.MustCompile(`^v(\d+\.\d+\.\d+)-rc\.(\d+)$`)

// NewSyncCommand creates the "sync" cobra command.
func NewSyncCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "sync <candidate-tag>",
		Short: "Copy a candidate's artifacts to the distribution mirror",
		Long: `Upload the packaged artifacts of a release candidate to an
S3-compatible mirror bucket.

The candidate tag selects which artifact directory to sync; by default
that is dist/shipyard/<tag> under the repository root. Objects are named
"<repo>-<version>-rc<n>/<file>". Re-running a sync overwrites the same
objects, so interrupted syncs can simply be retried.

Connection settings come from the environment:
  ` + mirrorEndpointEnvVar + `, ` + mirrorBucketEnvVar + `,
  ` + mirrorAccessKeyEnvVar + `, ` + mirrorSecretKeyEnvVar + `,
  and optionally ` + mirrorRegionEnvVar + ` and ` + mirrorUseSSLEnvVar + `.

Examples:
  shipyard sync v0.4.0-rc.1
  shipyard sync v1.2.0-rc.3 --dir out/v1.2.0-rc.3`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), args[0], dir)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Artifact directory to sync (default: dist/shipyard/<tag>)")

	return cmd
}

func runSync(ctx context.Context, tag, dir string) error {
	m := candidateTagPattern.FindStringSubmatch(tag)
	if m == nil {
		return model.NewCLIError(model.ExitValidationError,
			fmt.Sprintf("%q is not a candidate tag (expected vX.Y.Z-rc.N)", tag))
	}
	version, rcNumber := m[1], m[2]

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	rctx, err := workspace.Discover(cwd)
	if err != nil {
		return err
	}

	if dir == "" {
		dir = filepath.Join(rctx.RepoRoot, release.DefaultArtifactRoot, tag)
	}
	if _, err := os.Stat(dir); err != nil {
		return model.WrapCLIError(model.ExitValidationError,
			fmt.Sprintf("artifact directory %s is not readable", dir), err)
	}

	useSSL, _ := strconv.ParseBool(os.Getenv(mirrorUseSSLEnvVar))
	syncer, err := mirror.NewSyncer(mirror.Config{
		Endpoint:  os.Getenv(mirrorEndpointEnvVar),
		Region:    os.Getenv(mirrorRegionEnvVar),
		AccessKey: os.Getenv(mirrorAccessKeyEnvVar),
		SecretKey: os.Getenv(mirrorSecretKeyEnvVar),
		Bucket:    os.Getenv(mirrorBucketEnvVar),
		UseSSL:    useSSL,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "mirror configuration is incomplete", err)
	}

	prefix := fmt.Sprintf("%s-%s-rc%s", rctx.RepoName, version, rcNumber)
	VerboseLog("syncing %s to %s/%s", dir, os.Getenv(mirrorBucketEnvVar), prefix)

	count, err := syncer.Sync(ctx, prefix, dir)
	if err != nil {
		return model.WrapCLIError(model.ExitUploadError, "mirror sync failed", err)
	}

	fmt.Printf("Synced %d file(s) to %s\n", count, prefix)
	return nil
}
