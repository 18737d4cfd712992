// Package build holds build-time information.
package build

// Release metadata, overwritten with -ldflags "-X go.trai.ch/kiln/internal/build.Version=...".
var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// Commit is the VCS revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the release metadata for version output.
func String() string {
	return Version + " (commit: " + Commit + ", date: " + Date + ")"
}
