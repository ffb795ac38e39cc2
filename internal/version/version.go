// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/predictors-stream/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/predictors-stream/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/predictors
package version

import "runtime"

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"
)

// Info is the version as structured log attributes.
func Info() []any {
	return []any{
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
		"go", runtime.Version(),
	}
}

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
