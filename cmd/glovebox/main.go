// Command glovebox is the CLI entry point for the glovebox keyboard
// firmware toolchain.
package main

import (
	"os"

	"github.com/caddyglow/glovebox/internal/cmd"
)

// Linker variables, set via ldflags at build time.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.VersionInfo.Version = Version
	cmd.VersionInfo.BuildDate = BuildDate
	cmd.VersionInfo.GitCommit = GitCommit

	os.Exit(cmd.Execute())
}
