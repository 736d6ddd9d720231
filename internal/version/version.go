package version

import "fmt"

// Version is the growl release. Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/growl/internal/version.Version=v1.0.0".
var Version = "unknown"

// Build metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "growl " + Version
	}
	return fmt.Sprintf("growl %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
