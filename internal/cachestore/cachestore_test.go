package cachestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caddyglow/glovebox/internal/model"
)

func writeWorkspace(t *testing.T, dir string) {
	t.Helper()
	for _, comp := range []string{"zmk", "zephyr", "modules", ".west"} {
		if err := os.MkdirAll(filepath.Join(dir, comp), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", comp, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "zmk", "keymap.dtsi"), []byte("&kp Q;\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := Open(Config{Root: root, Now: func() time.Time { return time.Unix(1700000000, 0) }})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src := t.TempDir()
	writeWorkspace(t, src)

	meta, err := s.Put(ctx, "zmkfirmware/zmk", "main", "abc123", model.CacheLevelFull, src)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if meta.SizeBytes == 0 {
		t.Fatal("expected non-zero size")
	}

	got, err := s.Get(ctx, "zmkfirmware/zmk", "main", "abc123", model.CacheLevelFull)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Key != meta.Key {
		t.Fatalf("key mismatch: %s vs %s", got.Key, meta.Key)
	}
}

func TestGetMissReturnsNilNotError(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get(context.Background(), "zmkfirmware/zmk", "main", "nope", model.CacheLevelFull)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected a miss, got %+v", got)
	}
}

func TestBestMatchPrefersFullOverBranch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)

	if _, err := s.Put(ctx, "zmkfirmware/zmk", "main", "c1", model.CacheLevelBranch, src); err != nil {
		t.Fatalf("put branch: %v", err)
	}
	if _, err := s.Put(ctx, "zmkfirmware/zmk", "main", "c2", model.CacheLevelFull, src); err != nil {
		t.Fatalf("put full: %v", err)
	}

	best, err := s.BestMatch(ctx, "zmkfirmware/zmk", "main")
	if err != nil {
		t.Fatalf("best match: %v", err)
	}
	if best == nil || best.CacheLevel != model.CacheLevelFull {
		t.Fatalf("expected full-level entry, got %+v", best)
	}
}

func TestExtractProducesOriginalTree(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)

	meta, err := s.Put(ctx, "zmkfirmware/zmk", "main", "abc", model.CacheLevelFull, src)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	dest := t.TempDir()
	var lastFiles int
	err = s.Extract(ctx, meta, dest, func(_ string, filesProcessed, totalFiles int, _ int64, _ int64) {
		lastFiles = totalFiles
		_ = filesProcessed
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if lastFiles == 0 {
		t.Fatal("expected progress callback to report a nonzero file total")
	}
	data, err := os.ReadFile(filepath.Join(dest, "zmk", "keymap.dtsi"))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "&kp Q;\n" {
		t.Fatalf("unexpected extracted content: %q", data)
	}
}

func TestContentVerificationRemovesCorruptEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)

	meta, err := s.Put(ctx, "zmkfirmware/zmk", "main", "abc", model.CacheLevelFull, src)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := os.Remove(filepath.Join(s.root, objectKey(meta.Key))); err != nil {
		t.Fatalf("remove payload: %v", err)
	}

	got, err := s.Get(ctx, "zmkfirmware/zmk", "main", "abc", model.CacheLevelFull)
	if err != nil {
		t.Fatalf("unexpected error on missing payload: %v", err)
	}
	if got != nil {
		t.Fatal("expected cache entry to be treated as a miss once payload disappears")
	}
}

func TestInjectClassifiesFullLevel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)

	meta, err := s.Inject(ctx, "zmkfirmware/zmk", "main", "", src, "/home/user/my-zmk-checkout")
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	if meta.CacheLevel != model.CacheLevelFull {
		t.Fatalf("expected full level classification, got %s", meta.CacheLevel)
	}
	if !meta.AutoDetected || meta.AutoDetectedSource == "" {
		t.Fatalf("expected auto-detected provenance to be recorded, got %+v", meta)
	}
}

func TestDeleteRemovesAllEntriesForRepository(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)

	if _, err := s.Put(ctx, "zmkfirmware/zmk", "main", "c1", model.CacheLevelBranch, src); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "zmkfirmware/zmk", "develop", "c2", model.CacheLevelBranch, src); err != nil {
		t.Fatalf("put: %v", err)
	}

	n, err := s.Delete(ctx, "zmkfirmware/zmk")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries removed, got %d", n)
	}

	_, count, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty store after delete, got %d entries", count)
	}
}

func TestCleanupRemovesEntriesOlderThanMaxAge(t *testing.T) {
	root := t.TempDir()
	old := time.Unix(1000, 0)
	s, err := Open(Config{Root: root, Now: func() time.Time { return old }})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	src := t.TempDir()
	writeWorkspace(t, src)
	if _, err := s.Put(ctx, "zmkfirmware/zmk", "main", "c1", model.CacheLevelBuild, src); err != nil {
		t.Fatalf("put: %v", err)
	}

	s.now = func() time.Time { return old.Add(10 * 24 * time.Hour) }
	removed, err := s.Cleanup(ctx, 3*24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 entry removed, got %d", removed)
	}
}
