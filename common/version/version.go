// Package version carries build-time version metadata, populated via ldflags.
package version

var (
	// Version is the semantic version.
	Version = "v0.0.0-dev"

	// GitCommit is the short git commit hash.
	GitCommit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info formats the three fields into one human-readable line.
func Info() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
