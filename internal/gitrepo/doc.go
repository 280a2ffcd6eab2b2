// Package gitrepo provides the Git integration layer for shipyard.
//
// This package wraps Git CLI commands (via os/exec) to walk commit history,
// diff commits against their first parent, read tree objects and blobs,
// stage and commit the release mutation set, and create and push annotated
// tags.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library because the
//     pipeline depends on annotated tags, pushes over the user's configured
//     transport/credentials, and exact tree-object reads — all of which the
//     git binary provides with full compatibility.
//   - Tree-object reads (ls-tree / cat-file) are used for packaging so that
//     archives contain exactly what was tagged, never working-directory
//     state.
//   - All errors from Git commands are wrapped in model.CLIError with
//     ExitGitError to enable proper CLI exit code handling.
package gitrepo
