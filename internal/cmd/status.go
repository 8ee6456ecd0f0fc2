package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show toolchain status: version, cache, configured keyboards",
	RunE:  runStatus,
}

type statusReport struct {
	Version      string   `json:"version"`
	CacheRoot    string   `json:"cacheRoot"`
	CacheEntries int      `json:"cacheEntries"`
	CacheBytes   int64    `json:"cacheSizeBytes"`
	Keyboards    []string `json:"keyboards"`
}

func init() {
	statusCmd.Flags().String("output-format", "text", "output format: text, json")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")

	report := statusReport{
		Version:   VersionInfo.String(),
		CacheRoot: viper.GetString("cache_root"),
		Keyboards: getLoader().Available(),
	}

	store, err := openCache()
	if err == nil {
		defer store.Close()
		if size, count, statErr := store.Stats(); statErr == nil {
			report.CacheBytes = size
			report.CacheEntries = count
		}
	}

	return printFormatted(format, report, func() error {
		fmt.Printf("glovebox %s\n", report.Version)
		fmt.Printf("Cache root:    %s\n", report.CacheRoot)
		fmt.Printf("Cache entries: %d (%d bytes)\n", report.CacheEntries, report.CacheBytes)
		fmt.Printf("Keyboards:     %d configured\n", len(report.Keyboards))
		for _, kb := range report.Keyboards {
			fmt.Printf("  - %s\n", kb)
		}
		return nil
	})
}
