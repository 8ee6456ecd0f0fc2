package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/caddyglow/glovebox/internal/xerrors"
)

// executeCommand runs a cobra command with the given args and returns
// combined stdout/stderr.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"layout", "firmware", "cache", "config", "status", "version"}

	commands := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("expected subcommand %q not found on root", name)
		}
	}
}

func TestLayoutCommand_HasSubcommands(t *testing.T) {
	expected := []string{"compile", "parse", "import", "diff", "patch"}
	commands := make(map[string]bool)
	for _, c := range layoutCmd.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("expected layout subcommand %q not found", name)
		}
	}
}

func TestFirmwareCommand_HasSubcommands(t *testing.T) {
	expected := []string{"compile", "flash", "devices"}
	commands := make(map[string]bool)
	for _, c := range firmwareCmd.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("expected firmware subcommand %q not found", name)
		}
	}
}

func TestCacheWorkspaceCommand_HasSubcommands(t *testing.T) {
	expected := []string{"show", "delete", "cleanup", "add"}
	commands := make(map[string]bool)
	for _, c := range cacheWorkspaceCmd.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("expected cache workspace subcommand %q not found", name)
		}
	}
}

func TestConfigCommand_HasSubcommands(t *testing.T) {
	expected := []string{"list", "show", "firmwares", "firmware"}
	commands := make(map[string]bool)
	for _, c := range configCmd.Commands() {
		commands[c.Name()] = true
	}
	for _, name := range expected {
		if !commands[name] {
			t.Errorf("expected config subcommand %q not found", name)
		}
	}
}

func TestSplitProfile(t *testing.T) {
	cases := []struct {
		in       string
		kb, fw   string
	}{
		{"corne", "corne", ""},
		{"corne/default", "corne", "default"},
		{"glove80/rgb", "glove80", "rgb"},
	}
	for _, c := range cases {
		kb, fw := splitProfile(c.in)
		if kb != c.kb || fw != c.fw {
			t.Errorf("splitProfile(%q) = (%q, %q), want (%q, %q)", c.in, kb, fw, c.kb, c.fw)
		}
	}
}

func TestIsMisuse(t *testing.T) {
	if !isMisuse(errPlain("bad args")) {
		t.Error("expected a plain error to be classified as misuse")
	}
	if isMisuse(xerrors.ErrProfileNotFound) {
		t.Error("expected a core xerrors.Error not to be classified as misuse")
	}
}

type errPlain string

func (e errPlain) Error() string { return string(e) }

func TestLayoutCompile_RequiresProfileFlag(t *testing.T) {
	_, err := executeCommand(rootCmd, "layout", "compile", "layout.json")
	if err == nil {
		t.Fatal("expected an error when --profile is omitted")
	}
	if !isMisuse(err) {
		t.Errorf("expected a missing required flag to be classified as misuse, got %v", err)
	}
}
