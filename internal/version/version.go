// Package version carries build identification, overridden at link time
// via -ldflags.
package version

var (
	// Version is the release version of the binary.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns a single-line build identifier for startup logs.
func String() string {
	return Version + " (" + Commit + ", built " + BuildTime + ")"
}
