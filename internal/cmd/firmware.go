package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caddyglow/glovebox/internal/compile"
	"github.com/caddyglow/glovebox/internal/dtsi"
	"github.com/caddyglow/glovebox/internal/flash"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/progress"
	"github.com/caddyglow/glovebox/internal/sysadapter"
	"github.com/caddyglow/glovebox/internal/variables"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Compile and flash firmware",
}

var firmwareCompileCmd = &cobra.Command{
	Use:   "compile <file.json|.keymap>",
	Short: "Compile firmware for the given layout and profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runFirmwareCompile,
}

var firmwareFlashCmd = &cobra.Command{
	Use:   "flash <file.uf2|.json>...",
	Short: "Flash firmware onto a connected keyboard",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFirmwareFlash,
}

var firmwareDevicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected flashable devices",
	RunE:  runFirmwareDevices,
}

func init() {
	firmwareCmd.AddCommand(firmwareCompileCmd, firmwareFlashCmd, firmwareDevicesCmd)

	firmwareCompileCmd.Flags().String("profile", "", "keyboard[/firmware] profile (required)")
	firmwareCompileCmd.Flags().String("strategy", "", "compile strategy override: zmk_config, moergo")
	firmwareCompileCmd.Flags().String("output", "", "output directory (default: current directory)")
	firmwareCompileCmd.Flags().String("output-format", "text", "output format: text, json")
	_ = firmwareCompileCmd.MarkFlagRequired("profile")

	firmwareFlashCmd.Flags().String("profile", "", "keyboard[/firmware] profile (required)")
	firmwareFlashCmd.Flags().Int("count", 1, "number of devices to flash")
	firmwareFlashCmd.Flags().Bool("wait", false, "wait for devices to appear")
	firmwareFlashCmd.Flags().Int("timeout", 60, "seconds to wait when --wait is set")
	firmwareFlashCmd.Flags().Int("poll-interval", 2, "seconds between device scans when waiting")
	firmwareFlashCmd.Flags().String("output-format", "text", "output format: text, json")
	_ = firmwareFlashCmd.MarkFlagRequired("profile")

	firmwareDevicesCmd.Flags().String("profile", "", "keyboard[/firmware] profile (required)")
	firmwareDevicesCmd.Flags().String("output-format", "text", "output format: text, json")
	_ = firmwareDevicesCmd.MarkFlagRequired("profile")
}

// buildMatrix derives a BuildMatrix from the firmware's default boards
// (spec §3 "build matrix"; each default_boards entry is already a
// distinct board id, `_lh`/`_rh`-suffixed for split keyboards).
func buildMatrix(p *profile.Profile) model.BuildMatrix {
	matrix := model.BuildMatrix{}
	for _, board := range p.Firmware.DefaultBoards {
		matrix.Targets = append(matrix.Targets, model.BuildTarget{
			Board:        board,
			ArtifactName: p.FirmwareID,
		})
	}
	return matrix
}

// selectCompileMethod picks the keyboard's compile method matching
// strategy, or its first configured method when strategy is empty.
func selectCompileMethod(kd *model.KeyboardDescriptor, strategy string) (model.CompileMethodConfig, error) {
	if len(kd.CompileMethods) == 0 {
		return model.CompileMethodConfig{}, xerrors.ErrProfileInvalid.WithMessagef(
			"keyboard %q has no compile methods configured", kd.Keyboard)
	}
	if strategy == "" {
		return kd.CompileMethods[0], nil
	}
	for _, m := range kd.CompileMethods {
		if m.Strategy == strategy {
			return m, nil
		}
	}
	return model.CompileMethodConfig{}, xerrors.ErrProfileInvalid.WithMessagef(
		"keyboard %q has no %q compile method configured", kd.Keyboard, strategy)
}

func runFirmwareCompile(cmd *cobra.Command, args []string) error {
	p, err := resolveProfileFlag(cmd)
	if err != nil {
		return err
	}
	if p.IsKeyboardOnly() {
		return xerrors.ErrFirmwareNotFound.WithMessage("firmware compile requires a profile with a firmware selected")
	}

	strategy, _ := cmd.Flags().GetString("strategy")
	method, err := selectCompileMethod(p.Keyboard, strategy)
	if err != nil {
		return err
	}

	doc, err := loadLayoutInput(args[0], p)
	if err != nil {
		return err
	}
	flattened, err := variables.Flatten(doc)
	if err != nil {
		return err
	}
	rendered, err := dtsi.Render(p, flattened, dtsi.Options{})
	if err != nil {
		return err
	}
	kconfig := dtsi.Kconfig(p, nil)

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	workspaceRoot, err := os.MkdirTemp("", "glovebox-build-*")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	uidgid, err := sysadapter.HostUIDGID()
	if err != nil {
		return err
	}

	outputFormat, _ := cmd.Flags().GetString("output-format")
	outputDir, _ := cmd.Flags().GetString("output")

	keymapName := p.Keyboard.Keyboard + ".keymap"
	confName := p.Keyboard.Keyboard + ".conf"

	driver, err := compile.New(compile.Options{
		Repository:     p.Firmware.BuildOptions.Repository,
		Branch:         p.Firmware.BuildOptions.Branch,
		ManifestCommit: p.Firmware.BuildOptions.ManifestCommit,
		Matrix:         buildMatrix(p),
		Method:         method,
		Keymap:         p.Keyboard.Keymap,
		WorkspaceRoot:  workspaceRoot,
		OutputDir:      outputDir,
		LayoutBasename: layoutBasename(args[0]),
		ConfigFiles: map[string]string{
			keymapName: rendered,
			confName:   kconfig,
		},
		Cache:   cache,
		Adapter: sysadapter.NewPodmanAdapter("podman"),
		UIDGID:  uidgid,
		OnLine: func(line string) {
			if outputFormat != "json" {
				printStatusLine(os.Stderr, line)
			}
		},
		OnPhaseChange: func(from, to progress.Phase) {
			if outputFormat != "json" {
				printStatusLine(os.Stderr, fmt.Sprintf("==> %s", to))
			}
		},
	})
	if err != nil {
		return err
	}

	result, err := driver.Run(context.Background())
	if outputFormat != "json" {
		endStatusLine(os.Stderr)
	}
	if err != nil && result == nil {
		return err
	}

	return printFormatted(outputFormat, result, func() error {
		fmt.Printf("outcome: %s\n", result.Outcome)
		for _, a := range result.Artifacts {
			fmt.Printf("  %s -> %s\n", a.Target.Board, a.Path)
		}
		if len(result.Failed) > 0 {
			fmt.Printf("failed:  %v\n", result.Failed)
		}
		return err
	})
}

func runFirmwareDevices(cmd *cobra.Command, args []string) error {
	p, err := resolveProfileFlag(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("output-format")

	adapter := flash.NewLinuxAdapter()
	devices, err := adapter.ListDevices(context.Background(), p.Keyboard.Flash)
	if err != nil {
		return err
	}

	return printFormatted(format, devices, func() error {
		if len(devices) == 0 {
			printMessage("no matching devices found")
			return nil
		}
		rows := make([][]string, 0, len(devices))
		for _, d := range devices {
			rows = append(rows, []string{d.Path, d.MountPoint, d.VendorID, d.ProductID})
		}
		printTable([]string{"PATH", "MOUNT", "VENDOR", "PRODUCT"}, rows)
		return nil
	})
}

func runFirmwareFlash(cmd *cobra.Command, args []string) error {
	p, err := resolveProfileFlag(cmd)
	if err != nil {
		return err
	}
	count, _ := cmd.Flags().GetInt("count")
	wait, _ := cmd.Flags().GetBool("wait")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	pollSec, _ := cmd.Flags().GetInt("poll-interval")
	format, _ := cmd.Flags().GetString("output-format")

	adapter := flash.NewLinuxAdapter()
	ctx := context.Background()

	devices, err := waitForDevices(ctx, adapter, p.Keyboard.Flash, count, wait, timeoutSec, pollSec)
	if err != nil {
		return err
	}
	if len(devices) < count {
		return xerrors.ErrFlashNoDevice.WithMessagef("found %d device(s), need %d", len(devices), count)
	}

	type flashResult struct {
		Device flash.Device `json:"device"`
		File   string       `json:"file"`
		Error  string       `json:"error,omitempty"`
	}
	var results []flashResult
	for i, file := range args {
		if i >= len(devices) {
			break
		}
		dev := devices[i]
		res := flashResult{Device: dev, File: file}
		if err := adapter.Flash(ctx, dev, file); err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	return printFormatted(format, results, func() error {
		for _, r := range results {
			if r.Error != "" {
				fmt.Printf("FAILED %s -> %s: %s\n", r.File, r.Device.Path, r.Error)
			} else {
				fmt.Printf("OK     %s -> %s\n", r.File, r.Device.Path)
			}
		}
		return nil
	})
}

func waitForDevices(ctx context.Context, adapter flash.Adapter, cfg model.FlashConfig, count int, wait bool, timeoutSec, pollSec int) ([]flash.Device, error) {
	devices, err := adapter.ListDevices(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !wait || len(devices) >= count {
		return devices, nil
	}

	deadline := time.Now().Add(time.Duration(timeoutSec) * time.Second)
	interval := time.Duration(pollSec) * time.Second
	for time.Now().Before(deadline) {
		time.Sleep(interval)
		devices, err = adapter.ListDevices(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if len(devices) >= count {
			return devices, nil
		}
	}
	return devices, nil
}
