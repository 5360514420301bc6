// Package version exposes build-time metadata. The defaults below are for
// local development; release builds overwrite them with the linker's -X flag.
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)
