// Package version provides version information for the application.
package version

import "fmt"

// Version information, injected via ldflags on release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the bare version string.
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build information.
// Format: "v0.3.0 (commit: abc123, built: 2026-01-10T10:30:00Z)"
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
