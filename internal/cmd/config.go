package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caddyglow/glovebox/internal/profile"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect keyboard and firmware configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available keyboard ids",
	RunE:  runConfigList,
}

var configShowCmd = &cobra.Command{
	Use:   "show <keyboard>",
	Short: "Show a keyboard's resolved descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigShow,
}

var configFirmwaresCmd = &cobra.Command{
	Use:   "firmwares <keyboard>",
	Short: "List firmware ids available for a keyboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigFirmwares,
}

var configFirmwareCmd = &cobra.Command{
	Use:   "firmware <keyboard> <firmware>",
	Short: "Show one firmware descriptor",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigFirmware,
}

func init() {
	configCmd.AddCommand(configListCmd, configShowCmd, configFirmwaresCmd, configFirmwareCmd)
	for _, c := range []*cobra.Command{configListCmd, configShowCmd, configFirmwaresCmd, configFirmwareCmd} {
		c.Flags().String("output-format", "text", "output format: text, json")
	}
}

func runConfigList(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")
	keyboards := getLoader().Available()
	return printFormatted(format, keyboards, func() error {
		for _, kb := range keyboards {
			printMessage(kb)
		}
		return nil
	})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")
	kd, err := getLoader().Load(args[0])
	if err != nil {
		return err
	}
	return printFormatted(format, kd, func() error {
		fmt.Printf("keyboard:    %s\n", kd.Keyboard)
		fmt.Printf("description: %s\n", kd.Description)
		fmt.Printf("vendor:      %s\n", kd.Vendor)
		fmt.Printf("key_count:   %d\n", kd.KeyCount)
		fmt.Printf("split:       %v\n", kd.IsSplit)
		fmt.Printf("firmwares:   %d\n", len(kd.Firmwares))
		return nil
	})
}

func runConfigFirmwares(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")
	kd, err := getLoader().Load(args[0])
	if err != nil {
		return err
	}
	ids := profile.AvailableFirmwares(kd)
	return printFormatted(format, ids, func() error {
		for _, id := range ids {
			printMessage(id)
		}
		return nil
	})
}

func runConfigFirmware(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output-format")
	p, err := getLoader().Resolve(args[0], args[1])
	if err != nil {
		return err
	}
	return printFormatted(format, p.Firmware, func() error {
		fmt.Printf("version:     %s\n", p.Firmware.Version)
		fmt.Printf("description: %s\n", p.Firmware.Description)
		fmt.Printf("repository:  %s\n", p.Firmware.BuildOptions.Repository)
		fmt.Printf("branch:      %s\n", p.Firmware.BuildOptions.Branch)
		fmt.Printf("boards:      %v\n", p.Firmware.DefaultBoards)
		return nil
	})
}
