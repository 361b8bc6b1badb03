// Package version holds build identification injected at link time via
// -ldflags "-X github.com/banshee-data/rangekit/internal/version.Version=...".
package version

var (
	// Version is the release version of the tools in this module.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
