package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CommitKind classifies a commit by its conventional-commit type prefix.
// Breaking changes override every other kind, regardless of prefix.
type CommitKind string

const (
	// KindBreaking marks a commit that carries a breaking-change marker,
	// either a "!" in the subject's type prefix or a "BREAKING CHANGE:"
	// line in the message body.
	KindBreaking CommitKind = "breaking"

	// KindFeat marks a "feat:" commit (new functionality).
	KindFeat CommitKind = "feat"

	// KindFix marks a "fix:" commit (bug fix).
	KindFix CommitKind = "fix"

	// KindPerf marks a "perf:" commit (performance improvement).
	KindPerf CommitKind = "perf"

	// KindRefactor marks a "refactor:" commit.
	KindRefactor CommitKind = "refactor"

	// KindDocs marks a "docs:" commit.
	KindDocs CommitKind = "docs"

	// KindBuild marks a "build:" commit.
	KindBuild CommitKind = "build"

	// KindChore marks a "chore:" commit.
	KindChore CommitKind = "chore"

	// KindOther covers every subject that matches none of the known
	// prefixes. Classification is total: every commit gets a kind.
	KindOther CommitKind = "other"
)

// String returns the string representation of CommitKind.
// This satisfies fmt.Stringer for log and report output.
func (k CommitKind) String() string {
	return string(k)
}

// IsValid checks whether the CommitKind value is one of the predefined kinds.
func (k CommitKind) IsValid() bool {
	switch k {
	case KindBreaking, KindFeat, KindFix, KindPerf, KindRefactor,
		KindDocs, KindBuild, KindChore, KindOther:
		return true
	default:
		return false
	}
}

// BumpKind is the magnitude of a semantic-version increase decided for a
// package.
type BumpKind string

const (
	// BumpMajor increments the major component and resets minor and patch.
	BumpMajor BumpKind = "major"

	// BumpMinor increments the minor component and resets patch.
	BumpMinor BumpKind = "minor"

	// BumpPatch increments the patch component only.
	BumpPatch BumpKind = "patch"
)

// String returns the string representation of BumpKind.
func (b BumpKind) String() string {
	return string(b)
}

// ChangeEntry records one commit's contribution to one package. A single
// commit that touches files under several package roots produces one entry
// per touched package, and multiple touched files within the same package
// collapse into a single entry.
type ChangeEntry struct {
	// Kind is the commit classification.
	Kind CommitKind `json:"kind"`

	// Subject is the first line of the commit message.
	Subject string `json:"subject"`

	// ShortSHA is the abbreviated commit identifier (7 hex characters),
	// used in changelog entries.
	ShortSHA string `json:"shortSha"`

	// Breaking is true when the commit carried a breaking-change marker.
	// A breaking commit always has Kind == KindBreaking, but the flag is
	// kept separately so the bump policy does not depend on the kind
	// mapping rules.
	Breaking bool `json:"breaking"`
}

// PackageInfo describes one package of the workspace as discovered at the
// start of a run. It is immutable for the duration of the run; the new
// version decided by the planner lives in PackagePlan, never here.
type PackageInfo struct {
	// Name is the package name, unique within the workspace.
	Name string `json:"name"`

	// Version is the package's current version as declared in its manifest.
	Version *semver.Version `json:"version"`

	// ManifestPath is the absolute path to the package's manifest file.
	ManifestPath string `json:"manifestPath"`

	// Root is the package's subtree root relative to the repository root,
	// using forward slashes. "." denotes a package rooted at the
	// repository root itself.
	Root string `json:"root"`

	// InternalDependents is the number of workspace packages that declare
	// a dependency on this package. Used as the fallback signal when
	// inferring the primary package.
	InternalDependents int `json:"internalDependents"`
}

// ReleaseContext is the discovery output consumed by the release pipeline:
// everything the pipeline needs to know about the repository and its
// workspace, resolved once and then treated as read-only.
type ReleaseContext struct {
	// RepoRoot is the absolute path to the repository working tree root.
	RepoRoot string `json:"repoRoot"`

	// Owner is the release-host account owning the repository.
	Owner string `json:"owner"`

	// RepoName is the repository name on the release host.
	RepoName string `json:"repoName"`

	// Packages lists every workspace package.
	Packages []PackageInfo `json:"packages"`

	// Primary is the name of the designated primary package. A release
	// only proceeds when the primary package has attributed changes.
	Primary string `json:"primary"`

	// LastStableTag is the most recent stable tag (vX.Y.Z), or empty when
	// the repository has never been released. It bounds the commit range
	// under analysis.
	LastStableTag string `json:"lastStableTag,omitempty"`
}

// PackageByName returns the PackageInfo with the given name, or nil when
// no such package exists in the workspace.
func (c *ReleaseContext) PackageByName(name string) *PackageInfo {
	for i := range c.Packages {
		if c.Packages[i].Name == name {
			return &c.Packages[i]
		}
	}
	return nil
}

// PackagePlan is the planner's decision for a single package: the version
// it will be released as, and the change entries that justified it.
// Changes keep commit order (oldest first).
type PackagePlan struct {
	// NewVersion is the version the package is bumped to.
	NewVersion *semver.Version `json:"newVersion"`

	// Changes is the ordered list of attributed change entries.
	Changes []ChangeEntry `json:"changes"`
}

// Plan maps package names to their release decisions. Only packages with at
// least one attributed change appear. The Plan is built once by the planner
// and handed by reference to every downstream stage; nothing mutates it
// after construction.
type Plan struct {
	packages map[string]*PackagePlan
}

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{packages: make(map[string]*PackagePlan)}
}

// Add inserts or replaces the plan entry for a package.
func (p *Plan) Add(name string, pkg *PackagePlan) {
	p.packages[name] = pkg
}

// Get returns the plan entry for a package, or nil when the package has no
// attributed changes.
func (p *Plan) Get(name string) *PackagePlan {
	return p.packages[name]
}

// Len returns the number of packages in the plan.
func (p *Plan) Len() int {
	return len(p.packages)
}

// Names returns the planned package names in lexicographic order. Every
// iteration over the plan goes through this method so that downstream
// output (changelogs, archives, reports) is reproducible across runs.
func (p *Plan) Names() []string {
	names := make([]string, 0, len(p.packages))
	for name := range p.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PackagedPackage records the artifact files produced for one planned
// package: its tar.gz and zip archives plus one checksum sidecar per
// archive (4 files total).
type PackagedPackage struct {
	// Name is the package name.
	Name string `json:"name"`

	// Files are the absolute paths of the produced artifact files.
	Files []string `json:"files"`
}

// HasArchiveSuffix reports whether any of the packaged files carries the
// given suffix (e.g. ".tar.gz" or ".zip"). Used by plan validation.
func (p *PackagedPackage) HasArchiveSuffix(suffix string) bool {
	for _, f := range p.Files {
		if strings.HasSuffix(f, suffix) {
			return true
		}
	}
	return false
}

// ExitCode defines the CLI exit codes. These codes let scripts and CI
// systems distinguish failure classes without parsing error text.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the workspace configuration or a manifest
	// required for discovery could not be read.
	ExitConfigError ExitCode = 2

	// ExitGitError indicates a Git operation failed, including failure to
	// resolve the base tag to a commit.
	ExitGitError ExitCode = 3

	// ExitNoChanges indicates the primary package has no attributed
	// changes since the base tag, so there is nothing to release. The
	// pipeline aborts before any file mutation.
	ExitNoChanges ExitCode = 4

	// ExitManifestError indicates a workspace manifest could not be read
	// or parsed during mutation. This aborts before any tagging.
	ExitManifestError ExitCode = 5

	// ExitTagExists indicates the candidate tag already exists. This is
	// the idempotency guard against re-tagging after a partial prior run.
	ExitTagExists ExitCode = 6

	// ExitPackagingError indicates an archive could not be written.
	ExitPackagingError ExitCode = 7

	// ExitValidationError indicates the packaged artifact set does not
	// match the plan; nothing is uploaded in this state.
	ExitValidationError ExitCode = 8

	// ExitUploadError indicates an asset upload failed after exhausting
	// its retry budget.
	ExitUploadError ExitCode = 9
)

// CLIError is an error carrying an exit code. The CLI layer translates it
// into the process exit status; every other layer treats it as a regular
// error that wraps its cause.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
