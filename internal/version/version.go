// Package version carries build metadata stamped in by the linker.
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"     // Default value if not built with LDFLAGS
	CommitHash = "unknown" // Default value
	BuildDate  = "unknown" // Default value
)

// String formats the build metadata for the version command.
func String(name string) string {
	return fmt.Sprintf("%s version %s\nCommit: %s\nBuilt: %s\n", name, Version, CommitHash, BuildDate)
}
