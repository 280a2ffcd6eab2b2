package release

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/mmr-tortoise/shipyard/internal/gitrepo"
	"github.com/mmr-tortoise/shipyard/internal/model"
)

// FormatCandidateTag renders the candidate tag name for a base version and
// candidate number: v<major>.<minor>.<patch>-rc.<n>.
func FormatCandidateTag(base *semver.Version, n int) string {
	return fmt.Sprintf("v%d.%d.%d-rc.%d", base.Major(), base.Minor(), base.Patch(), n)
}

// NextCandidate computes the next candidate tag for a base version by
// scanning existing tags for v<base>-rc.<N> and taking the maximum observed
// N plus one. The first candidate for a version is rc.1.
func NextCandidate(repo *gitrepo.Repo, base *semver.Version) (string, int, error) {
	pattern := fmt.Sprintf(`^v%d\.%d\.%d-rc\.(\d+)$`, base.Major(), base.Minor(), base.Patch())
	re := regexp.MustCompile(pattern)

	tags, err := repo.Tags()
	if err != nil {
		return "", 0, err
	}

	maxN := 0
	for _, tag := range tags {
		m := re.FindStringSubmatch(tag)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxN {
			maxN = n
		}
	}

	next := maxN + 1
	return FormatCandidateTag(base, next), next, nil
}

// ensureTagAbsent is the idempotency guard: when the computed candidate
// tag already exists, the run fails here rather than silently re-tagging
// or re-uploading over a partial prior run.
func (p *Pipeline) ensureTagAbsent(tag string) error {
	if p.repo.TagExists(tag) {
		return model.NewCLIError(model.ExitTagExists,
			fmt.Sprintf("candidate tag already exists: %s", tag))
	}
	return nil
}
