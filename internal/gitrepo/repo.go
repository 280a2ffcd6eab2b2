package gitrepo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// emptyTreeSHA is the well-known object ID of the empty tree. Diffing a
// root commit against it yields the commit's full file list.
const emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Commit holds the metadata of a single commit as read from `git log`.
type Commit struct {
	// SHA is the full commit identifier.
	SHA string

	// ShortSHA is the abbreviated identifier (first 7 hex characters).
	ShortSHA string

	// Subject is the first line of the commit message.
	Subject string

	// Message is the full commit message including the subject.
	Message string

	// Parents are the parent commit identifiers in order; the first entry
	// is the first parent used for diffing.
	Parents []string
}

// TreeEntry describes one blob inside a commit's tree object, as parsed
// from `git ls-tree -r` output.
type TreeEntry struct {
	// Mode is the raw file mode string (e.g. "100644").
	Mode string

	// SHA is the blob object identifier.
	SHA string

	// Path is the repository-relative path, forward slashes.
	Path string
}

// Repo provides Git operations for a single repository by invoking the git
// CLI. Every command runs with `git -C <root>` so the process working
// directory never changes.
//
// We shell out to git rather than using a Go Git library because the
// pipeline needs annotated tags, pushes, and tree-object reads with full
// CLI compatibility, and the git binary is already a hard requirement for
// the repositories this tool operates on.
type Repo struct {
	// Root is the absolute path to the repository working tree root.
	Root string
}

// New creates a Repo rooted at the given working tree path.
func New(root string) *Repo {
	return &Repo{Root: root}
}

// DiscoverRoot returns the absolute path to the top-level directory of the
// repository containing the given path, via `git rev-parse --show-toplevel`.
func DiscoverRoot(path string) (string, error) {
	out, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the short name of the currently checked-out branch,
// or "HEAD" in a detached state.
func (r *Repo) CurrentBranch() (string, error) {
	out, err := runGit(r.Root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadSHA returns the full commit identifier of HEAD.
func (r *Repo) HeadSHA() (string, error) {
	out, err := runGit(r.Root, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsClean reports whether the working tree has no staged, unstaged, or
// untracked changes. `git status --porcelain` prints nothing for a clean
// tree, which makes the check a simple empty-output test.
func (r *Repo) IsClean() (bool, error) {
	out, err := runGit(r.Root, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// RemoteURL returns the fetch URL of the named remote. When the remote does
// not exist the git error is surfaced unchanged.
func (r *Repo) RemoteURL(remote string) (string, error) {
	out, err := runGit(r.Root, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Remotes lists the configured remote names.
func (r *Repo) Remotes() ([]string, error) {
	out, err := runGit(r.Root, "remote")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Tags returns all tag names in the repository.
func (r *Repo) Tags() ([]string, error) {
	out, err := runGit(r.Root, "tag", "--list")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// TagExists reports whether a tag with the given name exists. It uses
// `git rev-parse --verify` on the fully qualified ref so that a branch with
// the same name cannot shadow the check.
func (r *Repo) TagExists(tag string) bool {
	_, err := runGit(r.Root, "rev-parse", "--verify", "refs/tags/"+tag)
	return err == nil
}

// ResolveCommit resolves a ref (tag, branch, or SHA) to the commit it
// points to, peeling annotated tags.
func (r *Repo) ResolveCommit(ref string) (string, error) {
	out, err := runGit(r.Root, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// logFieldSep and logRecordSep are the ASCII unit/record separators used in
// the `git log` format string. Commit messages can contain any printable
// text, so the parser relies on control characters that git never emits
// inside a message on its own.
const (
	logFieldSep  = "\x1f"
	logRecordSep = "\x1e"
)

// CommitsSince returns the commits reachable from HEAD but not from base,
// oldest first. An empty base means the entire history is in range. Each
// commit carries its subject, full message, and parent list.
func (r *Repo) CommitsSince(base string) ([]Commit, error) {
	// %H full hash, %P parents, %s subject, %B raw body. Fields are
	// joined with the unit separator and records with the record
	// separator so multi-line messages survive parsing.
	format := "%H" + logFieldSep + "%P" + logFieldSep + "%s" + logFieldSep + "%B" + logRecordSep
	args := []string{"log", "--reverse", "--format=" + format}
	if base != "" {
		args = append(args, base+"..HEAD")
	} else {
		args = append(args, "HEAD")
	}

	out, err := runGit(r.Root, args...)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, logFieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected git log record: %q", record)
		}
		sha := fields[0]
		var parents []string
		if p := strings.TrimSpace(fields[1]); p != "" {
			parents = strings.Fields(p)
		}
		commits = append(commits, Commit{
			SHA:      sha,
			ShortSHA: shortSHA(sha),
			Subject:  fields[2],
			Message:  strings.TrimRight(fields[3], "\n"),
			Parents:  parents,
		})
	}
	return commits, nil
}

// DiffPathsFirstParent returns the repository-relative paths touched by a
// commit relative to its first parent. A root commit is diffed against the
// empty tree, so its full file list is returned.
func (r *Repo) DiffPathsFirstParent(c Commit) ([]string, error) {
	base := emptyTreeSHA
	if len(c.Parents) > 0 {
		base = c.Parents[0]
	}
	out, err := runGit(r.Root, "diff-tree", "-r", "--name-only", "--no-commit-id", base, c.SHA)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// StageAll stages every change in the working tree, including deletions
// and untracked files.
func (r *Repo) StageAll() error {
	_, err := runGit(r.Root, "add", "-A")
	return err
}

// Commit creates a commit on the current branch with the given message.
// Everything staged beforehand becomes part of the commit.
func (r *Repo) Commit(message string) error {
	_, err := runGit(r.Root, "commit", "-m", message)
	return err
}

// CreateAnnotatedTag creates an annotated tag at HEAD. Creation fails if
// the tag already exists; callers check existence first when they need a
// distinct error for that case.
func (r *Repo) CreateAnnotatedTag(tag, message string) error {
	_, err := runGit(r.Root, "tag", "-a", tag, "-m", message)
	return err
}

// Push pushes a single ref to the named remote. Tags are pushed with their
// fully qualified name (refs/tags/<tag>) to avoid ref ambiguity.
func (r *Repo) Push(remote, ref string) error {
	_, err := runGit(r.Root, "push", remote, ref)
	return err
}

// LsTree lists every blob inside the tree object of the given ref,
// restricted to the subtree path when one is provided ("." or "" means the
// whole tree). The listing reflects the committed tree exactly, never the
// working directory.
func (r *Repo) LsTree(ref, subtree string) ([]TreeEntry, error) {
	args := []string{"ls-tree", "-r", "-z", ref}
	if subtree != "" && subtree != "." {
		args = append(args, "--", subtree)
	}
	out, err := runGit(r.Root, args...)
	if err != nil {
		return nil, err
	}

	var entries []TreeEntry
	for _, record := range strings.Split(out, "\x00") {
		if record == "" {
			continue
		}
		// Each record is "<mode> <type> <sha>\t<path>".
		meta, path, ok := strings.Cut(record, "\t")
		if !ok {
			return nil, fmt.Errorf("unexpected ls-tree record: %q", record)
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			return nil, fmt.Errorf("unexpected ls-tree record: %q", record)
		}
		// Submodule (commit) and subtree entries carry no blob content.
		if fields[1] != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{Mode: fields[0], SHA: fields[2], Path: path})
	}
	return entries, nil
}

// BlobContent returns the raw bytes of a blob object.
func (r *Repo) BlobContent(sha string) ([]byte, error) {
	return runGitBytes(r.Root, "cat-file", "blob", sha)
}

// shortSHA abbreviates a full commit identifier to 7 characters, matching
// the width git itself uses for short output.
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// splitLines splits command output into trimmed, non-empty lines.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// runGit executes a git command in the given directory and returns its
// stdout as a string. See runGitBytes for the underlying behavior.
func runGit(repoPath string, args ...string) (string, error) {
	out, err := runGitBytes(repoPath, args...)
	return string(out), err
}

// runGitBytes executes a git command with the given arguments, operating on
// the repository at repoPath via the -C flag. It captures stdout and stderr
// separately; on failure the stderr output is folded into the returned
// error so callers get git's own diagnostics.
//
// The -C flag is used instead of exec.Cmd.Dir because git handles it before
// any subcommand processing, which keeps behavior consistent across all
// subcommands and avoids touching the process working directory.
func runGitBytes(repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	cmd := newGitCommand(fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return nil, model.WrapCLIError(model.ExitGitError, message, err)
	}

	return stdout.Bytes(), nil
}
