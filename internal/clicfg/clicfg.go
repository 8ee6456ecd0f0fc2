// Package clicfg wires Cobra flags to Viper configuration using the same
// search-path/env-prefix pattern the rest of the ambient stack uses.
package clicfg

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caddyglow/glovebox/internal/logging"
	"github.com/caddyglow/glovebox/internal/paths"
)

// Options configures viper initialization.
type Options struct {
	ConfigFile  string
	ConfigName  string
	ConfigType  string
	EnvPrefix   string
	SearchPaths []string
}

// DefaultOptions returns the glovebox default config search path, matching
// the path-search algorithm in spec §4.1 (built-in dir is handled
// separately by the profile resolver; this is for glovebox's *own* CLI
// config, e.g. the default cache root and registered keyboard paths).
func DefaultOptions() Options {
	return Options{
		ConfigName: "glovebox",
		ConfigType: "yaml",
		EnvPrefix:  "GLOVEBOX",
		SearchPaths: []string{
			"/etc/glovebox",
			"$HOME/.config/glovebox",
			".",
		},
	}
}

// Init reads config files and environment variables into the global viper
// instance.
func Init(opts Options) error {
	if opts.ConfigFile != "" {
		viper.SetConfigFile(paths.Expand(opts.ConfigFile))
	} else {
		viper.SetConfigName(opts.ConfigName)
		viper.SetConfigType(opts.ConfigType)
		for _, p := range opts.SearchPaths {
			viper.AddConfigPath(paths.Expand(p))
		}
	}

	if opts.EnvPrefix != "" {
		viper.SetEnvPrefix(opts.EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// RegisterLogFlags registers --log-output/--log-level on cmd.
func RegisterLogFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("log-output", "auto", "log output destination (auto, stdout, journald)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("log.output", cmd.PersistentFlags().Lookup("log-output"))
	_ = viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("log.output", "auto")
	viper.SetDefault("log.level", "info")
}

// RegisterConfigFlag registers --config on cmd.
func RegisterConfigFlag(cmd *cobra.Command, cfgFile *string, defaultPath string) {
	cmd.PersistentFlags().StringVar(cfgFile, "config", "", fmt.Sprintf("config file (default: %s)", defaultPath))
}

// NewLogger builds a Logger from the current viper state.
func NewLogger(prefix string) *logging.Logger {
	return logging.New(logging.Config{
		Output: logging.Output(viper.GetString("log.output")),
		Level:  viper.GetString("log.level"),
		Prefix: prefix,
	})
}
