// Package version exposes build information set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/NERVsystems/tripcarbon/pkg/version.Version=..."
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "dev"
)

// Info returns build information as string pairs
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String formats the build information on one line
func String() string {
	return fmt.Sprintf("tripcarbon %s (commit %s, built %s, %s)", Version, Commit, BuildDate, runtime.Version())
}
