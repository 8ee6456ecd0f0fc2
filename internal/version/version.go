// Package version holds build-time version information for the glovebox binary.
package version

import (
	"fmt"
	"runtime"
)

// Info holds version information, typically set at build time via ldflags.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

var (
	DefaultVersion   = "dev"
	DefaultBuildDate = "unknown"
	DefaultGitCommit = "unknown"
)

// New creates an Info with default values.
func New() *Info {
	return &Info{
		Version:   DefaultVersion,
		BuildDate: DefaultBuildDate,
		GitCommit: DefaultGitCommit,
	}
}

// GoVersion returns the Go runtime version.
func GoVersion() string {
	return runtime.Version()
}

// String returns the short version string.
func (i *Info) String() string {
	return i.Version
}

// Full returns a detailed multi-line version string for `glovebox status`/`version`.
func (i *Info) Full() string {
	return fmt.Sprintf(`glovebox %s
  Build Date: %s
  Git Commit: %s
  Go Version: %s`,
		i.Version,
		i.BuildDate,
		i.GitCommit,
		GoVersion(),
	)
}
