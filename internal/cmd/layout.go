package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caddyglow/glovebox/internal/diffpatch"
	"github.com/caddyglow/glovebox/internal/dtsi"
	"github.com/caddyglow/glovebox/internal/keymap"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/variables"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Render, parse, diff, and patch layout documents",
}

var layoutCompileCmd = &cobra.Command{
	Use:   "compile <input.json|.keymap>",
	Short: "Render a layout document to .keymap/.conf",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutCompile,
}

var layoutParseCmd = &cobra.Command{
	Use:   "parse <file.keymap>",
	Short: "Parse a .keymap file back into a layout document",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutParse,
}

var layoutImportCmd = &cobra.Command{
	Use:   "import <file.keymap>",
	Short: "Parse a .keymap file and save it as a layout document",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutImport,
}

var layoutDiffCmd = &cobra.Command{
	Use:   "diff <a.json> <b.json>",
	Short: "Diff two layout documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runLayoutDiff,
}

var layoutPatchCmd = &cobra.Command{
	Use:   "patch <source.json> <patch.json>",
	Short: "Apply an RFC-6902 patch to a layout document",
	Args:  cobra.ExactArgs(2),
	RunE:  runLayoutPatch,
}

func init() {
	layoutCmd.AddCommand(layoutCompileCmd, layoutParseCmd, layoutImportCmd, layoutDiffCmd, layoutPatchCmd)

	layoutCompileCmd.Flags().String("profile", "", "keyboard[/firmware] profile (required)")
	layoutCompileCmd.Flags().String("output", "", "output directory (default: current directory)")
	_ = layoutCompileCmd.MarkFlagRequired("profile")

	layoutParseCmd.Flags().String("profile", "", "keyboard[/firmware] profile")
	layoutParseCmd.Flags().String("mode", "auto", "parse mode: auto, full, template")
	layoutParseCmd.Flags().String("method", "ast", "structural backend: ast, regex")
	layoutParseCmd.Flags().String("output", "", "output file (default: stdout)")

	layoutImportCmd.Flags().String("profile", "", "keyboard[/firmware] profile")
	layoutImportCmd.Flags().String("name", "", "layout name (default: input file basename)")
	layoutImportCmd.Flags().StringP("directory", "d", ".", "destination directory")

	layoutDiffCmd.Flags().String("format", "summary", "output format: summary, detailed, pretty, json, dtsi")
	layoutDiffCmd.Flags().String("profile", "", "keyboard[/firmware] profile (required for --format dtsi)")

	layoutPatchCmd.Flags().String("output", "", "output file (default: stdout)")
}

func resolveProfileFlag(cmd *cobra.Command) (*profile.Profile, error) {
	flag, _ := cmd.Flags().GetString("profile")
	if flag == "" {
		return nil, xerrors.ErrProfileNotFound.WithMessage("--profile is required")
	}
	kb, fw := splitProfile(flag)
	return getLoader().Resolve(kb, fw)
}

func parseMode(s string) keymap.Mode {
	switch s {
	case "full":
		return keymap.ModeFull
	case "template":
		return keymap.ModeTemplate
	default:
		return keymap.ModeAuto
	}
}

func parseBackend(s string) keymap.Backend {
	if s == "regex" {
		return keymap.BackendRegex
	}
	return keymap.BackendAST
}

func runLayoutCompile(cmd *cobra.Command, args []string) error {
	p, err := resolveProfileFlag(cmd)
	if err != nil {
		return err
	}
	if p.IsKeyboardOnly() {
		return xerrors.ErrFirmwareNotFound.WithMessage("compile requires a profile with a firmware selected")
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

	outputDir, _ := cmd.Flags().GetString("output")
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	base := layoutBasename(args[0])
	keymapPath := filepath.Join(outputDir, base+".keymap")
	confPath := filepath.Join(outputDir, base+".conf")
	if err := os.WriteFile(keymapPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", keymapPath, err)
	}
	if err := os.WriteFile(confPath, []byte(kconfig), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", confPath, err)
	}
	fmt.Printf("wrote %s\n", keymapPath)
	fmt.Printf("wrote %s\n", confPath)
	return nil
}

func runLayoutParse(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	opts := keymap.Options{
		Mode:    parseMode(mustFlagString(cmd, "mode")),
		Backend: parseBackend(mustFlagString(cmd, "method")),
	}
	if profileFlag, _ := cmd.Flags().GetString("profile"); profileFlag != "" {
		kb, fw := splitProfile(profileFlag)
		p, err := getLoader().Resolve(kb, fw)
		if err != nil {
			return err
		}
		opts.Profile = p
	}

	doc, diags, err := keymap.Parse(string(source), opts)
	if err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%d:%d: %s\n", d.Line, d.Column, d.Message)
	}

	output, _ := cmd.Flags().GetString("output")
	return writeLayoutDocument(doc, output)
}

func runLayoutImport(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	opts := keymap.Options{Mode: keymap.ModeAuto, Backend: keymap.BackendAST}
	if profileFlag, _ := cmd.Flags().GetString("profile"); profileFlag != "" {
		kb, fw := splitProfile(profileFlag)
		p, err := getLoader().Resolve(kb, fw)
		if err != nil {
			return err
		}
		opts.Profile = p
	}

	doc, _, err := keymap.Parse(string(source), opts)
	if err != nil {
		return err
	}
	if doc.UUID == "" {
		doc.UUID = uuid.New().String()
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = layoutBasename(args[0])
	}
	dir, _ := cmd.Flags().GetString("directory")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	dest := filepath.Join(dir, name+".json")
	if err := writeLayoutDocument(doc, dest); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", dest)
	return nil
}

func runLayoutDiff(cmd *cobra.Command, args []string) error {
	base, err := loadLayoutDocument(args[0])
	if err != nil {
		return err
	}
	modified, err := loadLayoutDocument(args[1])
	if err != nil {
		return err
	}

	result, err := diffpatch.Diff(base, modified)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return printJSON(result)
	case "dtsi":
		p, err := resolveProfileFlag(cmd)
		if err != nil {
			return err
		}
		baseDTSI, err := dtsi.Render(p, base, dtsi.Options{DisableTimestamp: true})
		if err != nil {
			return err
		}
		modifiedDTSI, err := dtsi.Render(p, modified, dtsi.Options{DisableTimestamp: true})
		if err != nil {
			return err
		}
		out, err := diffpatch.DTSIDiff(args[0], args[1], baseDTSI, modifiedDTSI)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	case "pretty", "detailed":
		return printYAML(result)
	default:
		fmt.Printf("total operations: %d (+%d -%d ~%d)\n",
			result.Statistics.TotalOperations, result.Statistics.Additions,
			result.Statistics.Removals, result.Statistics.Replacements)
		fmt.Printf("layers:    added=%v removed=%v modified=%v\n",
			result.Summary.Layers.Added, result.Summary.Layers.Removed, result.Summary.Layers.Modified)
		fmt.Printf("hold-taps: added=%v removed=%v modified=%v\n",
			result.Summary.HoldTaps.Added, result.Summary.HoldTaps.Removed, result.Summary.HoldTaps.Modified)
		fmt.Printf("combos:    added=%v removed=%v modified=%v\n",
			result.Summary.Combos.Added, result.Summary.Combos.Removed, result.Summary.Combos.Modified)
		return nil
	}
}

func runLayoutPatch(cmd *cobra.Command, args []string) error {
	source, err := loadLayoutDocument(args[0])
	if err != nil {
		return err
	}

	patchData, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}
	patch, err := decodePatch(patchData)
	if err != nil {
		return err
	}

	patched, err := diffpatch.Apply(source, patch)
	if err != nil {
		return err
	}
	if patched.UUID == "" {
		patched.ParentUUID = source.UUID
		patched.UUID = uuid.New().String()
	}

	output, _ := cmd.Flags().GetString("output")
	return writeLayoutDocument(patched, output)
}

// decodePatch accepts either a bare RFC-6902 operation array or a full
// diffpatch.Result (as produced by `layout diff --format json`), using
// only its `patch` field in the latter case.
func decodePatch(data []byte) ([]diffpatch.Operation, error) {
	var ops []diffpatch.Operation
	if err := json.Unmarshal(data, &ops); err == nil {
		return ops, nil
	}
	var wrapped struct {
		Patch []diffpatch.Operation `json:"patch"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return wrapped.Patch, nil
}

// loadLayoutInput reads either a layout JSON document or a .keymap file
// (parsed against p), per spec §6's `<input.json|.keymap>` surface.
func loadLayoutInput(path string, p *profile.Profile) (*model.LayoutDocument, error) {
	if strings.EqualFold(filepath.Ext(path), ".keymap") {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		doc, _, err := keymap.Parse(string(source), keymap.Options{Mode: keymap.ModeAuto, Profile: p})
		return doc, err
	}
	return loadLayoutDocument(path)
}

func layoutBasename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mustFlagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
