// Package archive builds deterministic source archives from Git tree
// objects and computes their checksum sidecars.
//
// Each planned package is packaged into a gzip-compressed tar archive and
// a deflate-compressed zip archive containing byte-identical file sets with
// fixed permissions. Content is read from the tagged commit's tree via
// ls-tree and cat-file — never from the filesystem — so archives reflect
// exactly what was tagged. SHA-512 sidecars are computed by streaming in
// fixed-size chunks.
package archive
