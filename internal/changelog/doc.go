// Package changelog renders per-package changelog sections.
//
// Each release prepends one dated section per affected package to that
// package's CHANGELOG.md, newest first. Entries are grouped under fixed
// headers (Breaking Changes, Features, Fixes, Refactor/Perf, Others) and
// groups without entries are omitted. Existing content is never truncated;
// the file only grows by prepension.
package changelog
