// Package cli wires the shipyard subcommands together.
//
// This is the composition root: it is the only layer allowed to read the
// environment (release-host token, mirror credentials) and the only layer
// that talks to stdout/stderr. Everything below receives explicit
// configuration and reports errors as model.CLIError values, which
// Execute maps to process exit codes.
package cli
