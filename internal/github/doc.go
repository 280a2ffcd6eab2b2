// Package github is a thin REST client for the release host.
//
// It covers exactly the operations the release pipeline needs: fetching a
// release by tag, creating a prerelease entry, and uploading binary assets
// with a bounded retry loop and linear backoff. Credentials and endpoints
// are injected through Config at construction time; the package never
// reads process environment or other ambient state.
package github
