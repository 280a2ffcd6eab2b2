// Package plan implements commit attribution and version planning.
//
// The planner walks the commit range since the last stable tag, classifies
// every commit from its conventional-commit subject (with breaking-change
// detection), attributes touched file paths to their owning packages by
// longest-prefix match over package subtree roots, and decides each changed
// package's semantic-version bump under the pre/post-1.0 policy.
//
// The output is a model.Plan keyed by package name. The planner is
// read-only: it inspects Git objects but never mutates the repository or
// the working tree.
package plan
