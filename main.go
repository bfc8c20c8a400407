// Command unibundle merges an x64 and an arm64 macOS application bundle
// into a single universal bundle.
package main

import (
	"os"

	"github.com/unibundle/unibundle/internal/cmd"
	"github.com/unibundle/unibundle/internal/version"
)

// Populated by GoReleaser via ldflags.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func main() {
	version.Version = buildVersion
	version.Commit = buildCommit
	version.Date = buildDate

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
