package gitrepo

import "os/exec"

// newGitCommand builds the exec.Cmd for a git invocation. Kept as a seam in
// its own file so a custom git binary path can be added later without
// touching the call sites.
func newGitCommand(args ...string) *exec.Cmd {
	// #nosec G204 — args are constructed internally, not from user input
	return exec.Command("git", args...)
}
