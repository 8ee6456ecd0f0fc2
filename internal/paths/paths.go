// Package paths provides path expansion utilities shared by the profile
// resolver's search path and the cache/workspace roots.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand expands "~" to the current user's home directory and resolves
// environment variable references via os.ExpandEnv.
func Expand(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		if usr, err := user.Current(); err == nil {
			return filepath.Join(usr.HomeDir, path[2:])
		}
	} else if path == "~" {
		if usr, err := user.Current(); err == nil {
			return usr.HomeDir
		}
	}

	return path
}

// EnsureDir ensures the parent directory of path exists.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// EnsureDirPath ensures dirPath itself exists.
func EnsureDirPath(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
