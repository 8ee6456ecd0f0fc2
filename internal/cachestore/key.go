package cachestore

import (
	"encoding/hex"
	"path"
	"path/filepath"

	"github.com/caddyglow/glovebox/internal/model"
	"golang.org/x/crypto/blake2b"
)

// Key derives the stable content-addressed cache key for a
// (repository, branch, manifest_commit, level) tuple (spec §4.5 "Key
// construction"). blake2b stands in for the teacher's bcrypt import family
// — a fast, collision-resistant hash rather than a slow password hash,
// since this key is a lookup index, not a secret.
func Key(repository, branch, manifestCommit string, level model.CacheLevel) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(repository))
	h.Write([]byte{0})
	h.Write([]byte(branch))
	h.Write([]byte{0})
	h.Write([]byte(manifestCommit))
	h.Write([]byte{0})
	h.Write([]byte(level))
	return hex.EncodeToString(h.Sum(nil))
}

// objectKey returns the backend storage key for a hash's payload archive.
// Cache paths are opaque to consumers: <first-2-of-hash>/<hash>/payload.tar.xz.
func objectKey(hash string) string {
	return path.Join(hash[:2], hash, "payload.tar.xz")
}

// metaKey returns the backend storage key for a hash's sidecar metadata.
func metaKey(hash string) string {
	return path.Join(hash[:2], hash, "metadata.json")
}

// lockPath returns the local filesystem path of a key's lock file. Locking
// is always local even when the backend mirrors to S3: the invariant is
// "single writer per key within this store", not a distributed lock.
func lockPath(root, hash string) string {
	return filepath.Join(root, hash[:2], hash, ".lock")
}
