package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caddyglow/glovebox/internal/xerrors"
)

func writeKeyboardFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	_, err := l.Load("nope")
	if !xerrors.Is(err, xerrors.ErrProfileNotFound) {
		t.Fatalf("expected ProfileNotFound, got %v", err)
	}
}

func TestLoadBasic(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", `
keyboard: corne
description: split 42-key board
key_count: 42
is_split: true
firmwares:
  v1:
    version: "1.0"
    build_options:
      repository: zmkfirmware/zmk
      branch: main
`)
	l := NewLoader(dir)
	kd, err := l.Load("corne")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kd.Keyboard != "corne" || kd.KeyCount != 42 || !kd.IsSplit {
		t.Fatalf("unexpected descriptor: %+v", kd)
	}
	if _, ok := kd.Firmwares["v1"]; !ok {
		t.Fatalf("expected firmware v1, got %+v", kd.Firmwares)
	}
}

func TestLoadCachesResult(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", "keyboard: corne\nkey_count: 42\n")
	l := NewLoader(dir)
	a, err := l.Load("corne")
	if err != nil {
		t.Fatal(err)
	}
	os.Remove(filepath.Join(dir, "corne.yaml"))
	b, err := l.Load("corne")
	if err != nil {
		t.Fatalf("expected cached load to succeed after file removal: %v", err)
	}
	if a != b {
		t.Fatal("expected the same cached pointer")
	}
	l.ClearCache()
	if _, err := l.Load("corne"); err == nil {
		t.Fatal("expected error after cache clear and file removal")
	}
}

func TestParentInheritanceChildWins(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "base42", `
keyboard: base42
key_count: 42
vendor: acme
keymap:
  template_text: "BASE"
  system_behaviors: ["&kp", "&mt"]
`)
	writeKeyboardFile(t, dir, "corne", `
keyboard: corne
parent: base42
vendor: corne-makers
`)
	l := NewLoader(dir)
	kd, err := l.Load("corne")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kd.KeyCount != 42 {
		t.Fatalf("expected inherited key_count 42, got %d", kd.KeyCount)
	}
	if kd.Vendor != "corne-makers" {
		t.Fatalf("expected child vendor to win, got %q", kd.Vendor)
	}
	if kd.Keymap.TemplateText != "BASE" {
		t.Fatalf("expected inherited keymap.template_text, got %q", kd.Keymap.TemplateText)
	}
}

func TestParentCycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "a", "keyboard: a\nparent: b\n")
	writeKeyboardFile(t, dir, "b", "keyboard: a\nparent: a\n")
	l := NewLoader(dir)
	if _, err := l.Load("a"); !xerrors.Is(err, xerrors.ErrProfileInvalid) {
		t.Fatalf("expected ProfileInvalid for cyclic parent chain, got %v", err)
	}
}

func TestResolveDefaultFirmwareIsAlphabeticallyFirst(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", `
keyboard: corne
firmwares:
  zeta:
    version: "2.0"
    build_options: {repository: r, branch: b}
  alpha:
    version: "1.0"
    build_options: {repository: r, branch: b}
`)
	l := NewLoader(dir)
	p, err := l.Resolve("corne", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FirmwareID != "alpha" {
		t.Fatalf("expected alpha selected first, got %q", p.FirmwareID)
	}
}

func TestResolveKeyboardOnlyWhenNoFirmwares(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", "keyboard: corne\n")
	l := NewLoader(dir)
	p, err := l.Resolve("corne", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsKeyboardOnly() {
		t.Fatal("expected keyboard-only profile")
	}
}

func TestResolveFirmwareNotFound(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", `
keyboard: corne
firmwares:
  v1:
    version: "1.0"
    build_options: {repository: r, branch: b}
`)
	l := NewLoader(dir)
	_, err := l.Resolve("corne", "v2")
	if !xerrors.Is(err, xerrors.ErrFirmwareNotFound) {
		t.Fatalf("expected FirmwareNotFound, got %v", err)
	}
}

func TestResolveFirmwareKconfigOverridesKeyboard(t *testing.T) {
	dir := t.TempDir()
	writeKeyboardFile(t, dir, "corne", `
keyboard: corne
keymap:
  kconfig_options:
    CONFIG_ZMK_SLEEP:
      type: bool
      default: false
firmwares:
  v1:
    version: "1.0"
    build_options: {repository: r, branch: b}
    kconfig:
      CONFIG_ZMK_SLEEP:
        type: bool
        default: true
`)
	l := NewLoader(dir)
	p, err := l.Resolve("corne", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opt := p.KconfigOptions["CONFIG_ZMK_SLEEP"]
	if opt.Default != true {
		t.Fatalf("expected firmware kconfig to override keyboard's, got %+v", opt)
	}
}
