package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the version string set by ldflags.
	Version = "dev"

	// Commit is the git commit hash set by ldflags.
	Commit = "unknown"

	// Date is the build date set by ldflags.
	Date = "unknown"
)

// String returns the one-line version used in logs and request headers
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}

// Info returns detailed version information for the named binary
func Info(binary string) string {
	return fmt.Sprintf(`%s
Version: %s
Commit: %s
Built: %s
Go: %s
OS/Arch: %s/%s`, binary, Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
