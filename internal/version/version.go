// Package version exposes the build metadata stamped into the deskai binary.
//
// Release builds inject the values with -ldflags:
//
//	go build -ldflags="-X github.com/r1shah/deskai-go/internal/version.Version=v1.2.3 \
//	                    -X github.com/r1shah/deskai-go/internal/version.Commit=abc1234 \
//	                    -X github.com/r1shah/deskai-go/internal/version.BuildDate=2025-01-01"
//
// Local builds fall back to "dev"/"unknown".
package version

import "fmt"

var (
	// Version is the semantic version of the binary, e.g. "v1.2.3".
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build date in RFC3339 format.
	BuildDate = "unknown"
)

// String renders the stamped metadata in the form shown by `deskai version`.
func String() string {
	return fmt.Sprintf("deskai %s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
