package cachestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caddyglow/glovebox/internal/xerrors"
)

// keyLock is a single-writer-per-key lock backed by an exclusively-created
// lock file (spec §4.5: "a creating process holds an exclusive file-lock on
// the target key's metadata until atomic rename of the payload into
// place"). No flock-style advisory-locking package is a direct dependency
// of any complete repo in the retrieval pack (only indirect references
// inside unrelated Kubernetes tooling manifests), so this uses the
// classic O_CREATE|O_EXCL lockfile idiom instead of importing one.
type keyLock struct {
	path string
}

func acquireLock(root, hash string) (*keyLock, error) {
	p := lockPath(root, hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create cache entry dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, xerrors.ErrCacheLocked.WithMessagef("cache entry %s is locked by another writer", hash)
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()
	return &keyLock{path: p}, nil
}

func (l *keyLock) release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
