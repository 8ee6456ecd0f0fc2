package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output-format")
		return printFormatted(format, VersionInfo, func() error {
			fmt.Println(VersionInfo.Full())
			return nil
		})
	},
}

func init() {
	versionCmd.Flags().String("output-format", "text", "output format: text, json")
}
