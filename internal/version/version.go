// Package version holds build metadata injected by the linker.
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time:
//
//	-X github.com/dkoosis/dlpstream/internal/version.Version=v1.2.3
var (
	Version    = "dev"     // Default value if not built with LDFLAGS
	CommitHash = "unknown" // Default value
	BuildDate  = "unknown" // Default value
)

// String renders the build metadata for `dlpstream version`.
func String() string {
	return fmt.Sprintf("dlpstream version %s\nCommit: %s\nBuilt: %s\n", Version, CommitHash, BuildDate)
}
