// Package profile resolves a keyboard id (plus optional firmware id) to a
// validated model.KeyboardDescriptor / Resolved profile, by path-search,
// YAML decode, parent-chain inheritance merge, and firmware selection
// (spec §4.1, component C). Grounded on original_source's
// keyboard_profile.py search/cache/merge algorithm, translated into Go's
// idiom with the teacher's small-loader-with-mutex-guarded-cache style.
package profile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/caddyglow/glovebox/internal/paths"
)

// EnvKeyboardPath names the environment variable carrying extra
// colon-separated keyboard search directories (spec §4.1 item 3).
const EnvKeyboardPath = "GLOVEBOX_KEYBOARD_PATH"

// EnvBuiltinKeyboards overrides the built-in keyboards directory that
// ships alongside the binary (spec §4.1 item 1). There is no embedded
// asset bundle in this build, so the built-in directory is located next
// to the binary or via this override.
const EnvBuiltinKeyboards = "GLOVEBOX_BUILTIN_KEYBOARDS"

// SearchPaths returns the ordered list of existing directories to search
// for a keyboard descriptor, per spec §4.1:
//  1. built-in keyboards directory
//  2. $XDG_CONFIG_HOME/glovebox/keyboards (or platform default)
//  3. GLOVEBOX_KEYBOARD_PATH entries
//  4. extra paths injected by the caller (user-config)
//
// Non-existent directories are filtered out; the first hit in this order
// wins when looking up a specific keyboard.
func SearchPaths(extra []string) []string {
	var candidates []string

	if dir := builtinKeyboardsDir(); dir != "" {
		candidates = append(candidates, dir)
	}
	candidates = append(candidates, filepath.Join(xdgConfigHome(), "glovebox", "keyboards"))

	if env := os.Getenv(EnvKeyboardPath); env != "" {
		for _, p := range strings.Split(env, ":") {
			if p != "" {
				candidates = append(candidates, paths.Expand(p))
			}
		}
	}
	for _, p := range extra {
		if p != "" {
			candidates = append(candidates, paths.Expand(p))
		}
	}

	out := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if paths.IsDir(p) {
			out = append(out, p)
		}
	}
	return out
}

func builtinKeyboardsDir() string {
	if v := os.Getenv(EnvBuiltinKeyboards); v != "" {
		return v
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "keyboards")
		if paths.IsDir(dir) {
			return dir
		}
	}
	return ""
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config"
	}
	return filepath.Join(home, ".config")
}
