// Package model defines the domain types and value objects for the
// shipyard CLI.
//
// This package contains pure data structures with no I/O: commit
// classification kinds, attributed change entries, the per-run release
// context, the release plan, and packaged-artifact records. Everything is
// reconstructed from the Git repository and the workspace manifests at the
// start of a run — there are no persistent state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
