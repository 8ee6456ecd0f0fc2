package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caddyglow/glovebox/internal/cachestore"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/sysadapter"
)

func writeFixtureWorkspace(t *testing.T, dir string) {
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

func openTestCache(t *testing.T) *cachestore.Store {
	t.Helper()
	s, err := cachestore.Open(cachestore.Config{Root: t.TempDir(), Now: func() time.Time { return time.Unix(1700000000, 0) }})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetupFullCacheHitSkipsContainer(t *testing.T) {
	cache := openTestCache(t)
	src := t.TempDir()
	writeFixtureWorkspace(t, src)

	ctx := context.Background()
	if _, err := cache.Put(ctx, "zmkfirmware/zmk", "main", "sha1", model.CacheLevelFull, src); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	fake := &sysadapter.FakeAdapter{}
	result, err := Setup(ctx, Options{
		Repository: "zmkfirmware/zmk",
		Branch:     "main",
		TargetPath: t.TempDir(),
		Cache:      cache,
		Adapter:    fake,
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !result.FromCache || result.Level != model.CacheLevelFull {
		t.Fatalf("expected a full cache hit, got %+v", result)
	}
	if len(fake.Calls) != 0 {
		t.Fatalf("expected no container invocations on a full hit, got %d", len(fake.Calls))
	}
	if _, err := os.Stat(filepath.Join(result.Path, "zmk", "keymap.dtsi")); err != nil {
		t.Fatalf("expected cached payload to be copied in: %v", err)
	}
}

func TestSetupCacheMissRunsWestCommands(t *testing.T) {
	cache := openTestCache(t)
	fake := &sysadapter.FakeAdapter{ExitCode: 0}

	ctx := context.Background()
	result, err := Setup(ctx, Options{
		Repository:     "zmkfirmware/zmk",
		Branch:         "main",
		TargetPath:     t.TempDir(),
		Cache:          cache,
		Adapter:        fake,
		ContainerImage: "zmkfirmware/zmk-build-arm:stable",
		ConfigDir:      "config",
		BuildDir:       ".",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if result.FromCache {
		t.Fatal("expected a cache miss, not a hit")
	}
	if result.Level != model.CacheLevelFull {
		t.Fatalf("expected full level after west update, got %s", result.Level)
	}
	if len(fake.Calls) != 3 {
		t.Fatalf("expected init+update+zephyr-export (3 calls), got %d: %+v", len(fake.Calls), fake.Calls)
	}
	if fake.Calls[0].Command[0] != "west" || fake.Calls[0].Command[1] != "init" {
		t.Fatalf("expected first call to be west init, got %+v", fake.Calls[0].Command)
	}
}

func TestSetupWestFailurePropagatesWorkspaceError(t *testing.T) {
	cache := openTestCache(t)
	fake := &sysadapter.FakeAdapter{ExitCode: 1}

	_, err := Setup(context.Background(), Options{
		Repository: "zmkfirmware/zmk",
		Branch:     "main",
		TargetPath: t.TempDir(),
		Cache:      cache,
		Adapter:    fake,
		ConfigDir:  "config",
		BuildDir:   ".",
	})
	if err == nil {
		t.Fatal("expected west init failure to surface as an error")
	}
}

func TestReleaseDeletesUnlessPreserved(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	if err := Release(dir, true); err != nil {
		t.Fatalf("release preserve: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected preserved workspace to survive, got: %v", err)
	}

	if err := Release(dir, false); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected workspace to be removed, stat err: %v", err)
	}
}

func TestPromoteWritesCacheEntry(t *testing.T) {
	cache := openTestCache(t)
	ctx := context.Background()
	src := t.TempDir()
	writeFixtureWorkspace(t, src)

	result := &Result{Path: src, Level: model.CacheLevelFull}
	meta, err := Promote(ctx, Options{Repository: "zmkfirmware/zmk", Branch: "main", Cache: cache}, result)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if meta == nil || meta.CacheLevel != model.CacheLevelFull {
		t.Fatalf("expected promoted entry at full level, got %+v", meta)
	}
}
