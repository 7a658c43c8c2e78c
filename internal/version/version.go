// Package version exposes build-time metadata stamped into the binary via ldflags.
package version

const (
	defaultVersion   = "dev"
	defaultCommit    = "none"
	defaultBuildDate = "unknown"
)

var (
	// Version is the git descriptor of the buildinfo binary itself.
	Version = defaultVersion
	// Commit is the full commit hash the binary was built from.
	Commit = defaultCommit
	// BuildDate is the UTC timestamp when the binary was built.
	BuildDate = defaultBuildDate
)

// Summary returns a human-readable description of the build metadata.
func Summary() string {
	summary := Version
	if Commit != defaultCommit && Commit != "" {
		summary += " commit " + Commit
	}
	return summary + " (built " + BuildDate + ")"
}
