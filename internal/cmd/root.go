// Package cmd implements the glovebox command-line surface (spec §6): a
// thin Cobra/Viper tree that parses flags and dispatches into the core
// packages, mirroring ldfctl/internal/cmd's dispatch into client.Client.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caddyglow/glovebox/internal/cachestore"
	"github.com/caddyglow/glovebox/internal/clicfg"
	"github.com/caddyglow/glovebox/internal/logging"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/version"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

var (
	// VersionInfo holds build-time version data, set via ldflags in main.
	VersionInfo = version.New()

	cfgFile string

	loader *profile.Loader
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "glovebox",
	Short: "Glovebox keyboard firmware toolchain",
	Long: `glovebox resolves keyboard profiles, renders and parses ZMK keymaps,
diffs and patches layout documents, compiles firmware inside a build
container, and flashes the result onto a connected keyboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command and returns the process exit code named
// by spec §6: 0 success, 1 operational failure, 2 misuse.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if isMisuse(err) {
		return 2
	}
	return 1
}

// isMisuse reports whether err is Cobra argument/flag validation rather
// than a failure surfaced by a core package. Core failures are always a
// *xerrors.Error; anything else reaching the top is Cobra rejecting the
// invocation itself.
func isMisuse(err error) bool {
	var xerr *xerrors.Error
	return !errors.As(err, &xerr)
}

func init() {
	clicfg.RegisterConfigFlag(rootCmd, &cfgFile, "/etc/glovebox/glovebox.yaml")
	clicfg.RegisterLogFlags(rootCmd)

	rootCmd.PersistentFlags().String("cache-root", "~/.cache/glovebox", "cache store root directory")
	rootCmd.PersistentFlags().StringSlice("keyboard-path", nil, "additional keyboard descriptor directories")
	_ = viper.BindPFlag("cache_root", rootCmd.PersistentFlags().Lookup("cache-root"))
	_ = viper.BindPFlag("keyboard_paths", rootCmd.PersistentFlags().Lookup("keyboard-path"))
	viper.SetDefault("cache_root", "~/.cache/glovebox")

	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(firmwareCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	opts := clicfg.DefaultOptions()
	opts.ConfigFile = cfgFile
	if err := clicfg.Init(opts); err != nil {
		return err
	}
	logger = clicfg.NewLogger("glovebox")
	loader = profile.NewLoader(viper.GetStringSlice("keyboard_paths")...)
	return nil
}

// getLoader returns the process-wide keyboard descriptor loader.
func getLoader() *profile.Loader {
	if loader == nil {
		loader = profile.NewLoader()
	}
	return loader
}

func getLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return logger
}

// openCache opens the configured cache store.
func openCache() (*cachestore.Store, error) {
	return cachestore.Open(cachestore.Config{Root: viper.GetString("cache_root")})
}

// splitProfile splits a `KB[/FW]` profile flag into keyboard and firmware id.
func splitProfile(p string) (keyboard, firmware string) {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return p, ""
}
