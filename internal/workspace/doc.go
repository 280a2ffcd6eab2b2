// Package workspace discovers the release context for a repository.
//
// Discovery resolves the repository root, parses owner/name from the Git
// remote URL, collects the workspace package list (from the optional
// .shipyard.jsonc configuration or by scanning for package.yaml manifests),
// counts internal dependents, infers the primary package, and finds the
// last stable tag. The result is a read-only model.ReleaseContext consumed
// by the release pipeline.
package workspace
