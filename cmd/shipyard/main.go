// Command shipyard prepares release candidates for multi-package
// repositories: version planning, manifest and changelog mutation,
// candidate tagging, source packaging, and upload to the release host.
package main

import (
	"github.com/joho/godotenv"

	"github.com/mmr-tortoise/shipyard/internal/cli"
)

// Build-time variables injected via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2026-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A .env file beside the working directory may carry the release-host
	// token and mirror credentials; absence is fine.
	_ = godotenv.Load()

	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
