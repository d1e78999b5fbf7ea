// Package version carries the build-time version stamp.
package version

import (
	"fmt"
	"runtime"
)

// Version is set at build time:
// go build -ldflags "-X github.com/docfix/docfix/internal/version.Version=v1.2.0".
var Version = "dev"

// Build metadata, stamped the same way.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the one-line version used by --version and bug reports.
func String() string {
	return fmt.Sprintf("docfix %s (commit %s, built %s, %s %s/%s)",
		Version, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
