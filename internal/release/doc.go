// Package release orchestrates the release-candidate pipeline.
//
// A run proceeds in strict stages: compute the plan (abort if the primary
// package has no changes), apply manifest and changelog mutations and
// commit them, compute and create the candidate tag under an idempotency
// guard, push, ensure a prerelease entry on the release host, package every
// planned package from the tagged tree, validate the artifact set against
// the plan, and upload. Each stage must complete before the next begins;
// failures stop the pipeline without rolling back commits or tags that
// were already created.
package release
