// Package mirror syncs packaged candidate artifacts to a distribution
// mirror backed by an S3-compatible object store.
//
// The release host remains the source of truth; the mirror is a
// convenience copy for consumers that pull from object storage. Sync is
// idempotent per object name, so an interrupted sync can simply be rerun.
package mirror
