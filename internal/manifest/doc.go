// Package manifest reads and surgically mutates workspace package
// manifests (package.yaml).
//
// A manifest has a package section with name and version fields, and up to
// three dependency sections (dependencies, dev-dependencies,
// build-dependencies) whose entries are either a bare version scalar or a
// mapping that carries a version key.
//
// Mutation happens on the yaml.v3 node tree so that comments, key order,
// and unrelated fields are preserved byte-for-byte where possible; files
// are only written back when an entry actually changed.
package manifest
