package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/paths"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Config configures a Store.
type Config struct {
	// Root is the local filesystem root used for the sqlite index and the
	// per-key lock files, and — when Backend is nil — the payload storage
	// root too.
	Root string
	// Backend stores payload archives and metadata sidecars. Defaults to a
	// LocalBackend rooted at Root when nil.
	Backend Backend
	// Now overrides the clock for testing.
	Now func() time.Time
}

// Store is the content-addressed workspace/build-artifact cache (spec
// §4.5), grounded on ldfd/download.Cache's Lookup/Store/evict shapes.
type Store struct {
	root    string
	backend Backend
	index   *idx
	now     func() time.Time
}

// Open creates or attaches to a cache store rooted at cfg.Root.
func Open(cfg Config) (*Store, error) {
	root := paths.Expand(cfg.Root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root %s: %w", root, err)
	}

	backend := cfg.Backend
	if backend == nil {
		local, err := NewLocal(LocalConfig{BasePath: root})
		if err != nil {
			return nil, err
		}
		backend = local
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	index, err := openIndex(filepath.Join(root, "index.db"))
	if err != nil {
		return nil, err
	}
	if rows, countErr := index.all(); countErr == nil && len(rows) == 0 {
		if rebuildErr := index.rebuild(root); rebuildErr != nil {
			index.close()
			return nil, fmt.Errorf("rebuild cache index: %w", rebuildErr)
		}
	}

	return &Store{root: root, backend: backend, index: index, now: now}, nil
}

// Close releases the store's index handle.
func (s *Store) Close() error {
	return s.index.close()
}

// Put compresses sourceDir and registers it in the store under the key
// derived from (repository, branch, manifestCommit, level). A single-writer
// file lock is held for the duration of the write (spec §4.5).
func (s *Store) Put(ctx context.Context, repository, branch, manifestCommit string, level model.CacheLevel, sourceDir string) (*model.CacheEntryMetadata, error) {
	hash := Key(repository, branch, manifestCommit, level)

	lock, err := acquireLock(s.root, hash)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	tmp, err := os.CreateTemp("", "glovebox-cache-*.tar.xz")
	if err != nil {
		return nil, fmt.Errorf("create staging archive: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	size, err := pack(ctx, sourceDir, tmpPath)
	if err != nil {
		return nil, err
	}

	components := componentSlice(presentComponents(sourceDir))

	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("reopen staging archive: %w", err)
	}
	defer f.Close()
	if err := s.backend.Upload(ctx, objectKey(hash), f, size); err != nil {
		return nil, err
	}

	meta := model.CacheEntryMetadata{
		Key:              hash,
		Repository:       repository,
		Branch:           branch,
		ManifestCommit:   manifestCommit,
		CacheLevel:       level,
		SizeBytes:        size,
		CreatedAt:        s.now(),
		LastAccess:       s.now(),
		CachedComponents: components,
	}
	if err := s.writeMetadata(ctx, meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Inject registers an externally-prepared workspace directory as a cache
// entry (spec §4.5 "Injection"): it validates the expected top-level
// components are present, assigns the best-matching level, and writes
// metadata exactly as Put does.
func (s *Store) Inject(ctx context.Context, repository, branch, manifestCommit, sourceDir, source string) (*model.CacheEntryMetadata, error) {
	components := presentComponents(sourceDir)
	if len(components) == 0 {
		return nil, xerrors.ErrCacheCorrupt.WithMessagef("injected directory %s has none of the expected components", sourceDir)
	}
	level := classifyLevel(components)

	meta, err := s.Put(ctx, repository, branch, manifestCommit, level, sourceDir)
	if err != nil {
		return nil, err
	}
	meta.AutoDetected = true
	meta.AutoDetectedSource = source
	if err := s.writeMetadata(ctx, *meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// classifyLevel assigns the furthest-along level the present components
// support (spec §4.5: base < branch < full, "build" only ever comes from a
// completed compile so injection never assigns it).
func classifyLevel(components map[string]bool) model.CacheLevel {
	if components[".west"] && components["modules"] {
		return model.CacheLevelFull
	}
	if components["zmk"] {
		return model.CacheLevelBranch
	}
	return model.CacheLevelBase
}

func presentComponents(dir string) map[string]bool {
	found := map[string]bool{}
	for _, name := range model.ExpectedComponents {
		if paths.IsDir(filepath.Join(dir, name)) {
			found[name] = true
		}
	}
	return found
}

func componentSlice(set map[string]bool) []string {
	var out []string
	for name, ok := range set {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) writeMetadata(ctx context.Context, meta model.CacheEntryMetadata) error {
	if meta.CachedComponents == nil {
		meta.CachedComponents = []string{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache metadata: %w", err)
	}
	if err := s.backend.Upload(ctx, metaKey(meta.Key), bytesReader(data), int64(len(data))); err != nil {
		return err
	}
	return s.index.upsert(meta.Key, meta)
}

// Get performs an exact lookup for (repository, branch, manifestCommit,
// level), verifying payload content before returning a hit and touching
// last_access on success (spec §4.5 content verification + TTL policy).
func (s *Store) Get(ctx context.Context, repository, branch, manifestCommit string, level model.CacheLevel) (*model.CacheEntryMetadata, error) {
	hash := Key(repository, branch, manifestCommit, level)
	return s.verifyAndTouch(ctx, hash)
}

// BestMatch queries the store for the best-matching cached entry for a
// repository+branch, preferring full > branch > base (spec §4.6 step 1).
// manifestCommit is not part of the search since workspace setup may not
// know it yet; callers that need an exact manifest match should use Get.
func (s *Store) BestMatch(ctx context.Context, repository, branch string) (*model.CacheEntryMetadata, error) {
	rows, err := s.index.byRepoBranch(repository, branch)
	if err != nil {
		return nil, fmt.Errorf("query cache index: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CacheLevel.Rank() > rows[j].CacheLevel.Rank() })
	for _, row := range rows {
		meta, err := s.verifyAndTouch(ctx, row.Key)
		if err != nil {
			continue
		}
		if meta != nil {
			return meta, nil
		}
	}
	return nil, nil
}

func (s *Store) verifyAndTouch(ctx context.Context, hash string) (*model.CacheEntryMetadata, error) {
	meta, err := s.index.get(hash)
	if err != nil {
		return nil, fmt.Errorf("query cache index: %w", err)
	}
	if meta == nil {
		return nil, nil
	}

	exists, err := s.backend.Exists(ctx, objectKey(hash))
	if err != nil {
		return nil, err
	}
	if !exists {
		s.removeEntry(ctx, hash)
		return nil, nil
	}

	r, err := s.backend.Download(ctx, objectKey(hash))
	if err != nil {
		s.removeEntry(ctx, hash)
		return nil, nil
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "glovebox-cache-verify-*.tar.xz")
	if err != nil {
		return nil, fmt.Errorf("stage verification copy: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := copyAll(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("stage verification copy: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		tmp.Close()
		return nil, err
	}
	present, err := topLevelComponents(tmp)
	tmp.Close()
	if err != nil {
		s.removeEntry(ctx, hash)
		return nil, xerrors.ErrCacheCorrupt.WithMessagef("cache entry %s is corrupt: %v", hash, err)
	}
	for _, want := range meta.CachedComponents {
		if !present[want] {
			s.removeEntry(ctx, hash)
			return nil, xerrors.ErrCacheCorrupt.WithMessagef("cache entry %s is missing expected component %q", hash, want)
		}
	}

	if meta.IsStale(s.now()) {
		s.removeEntry(ctx, hash)
		return nil, nil
	}
	meta.LastAccess = s.now()
	if err := s.index.touch(hash, meta.LastAccess); err != nil {
		return nil, fmt.Errorf("touch cache entry: %w", err)
	}
	return meta, nil
}

// Extract unpacks a cache entry's payload into destDir, reporting
// copy-with-progress exactly as spec §4.6 describes.
func (s *Store) Extract(ctx context.Context, meta *model.CacheEntryMetadata, destDir string, progress ExtractProgressFunc) error {
	r, err := s.backend.Download(ctx, objectKey(meta.Key))
	if err != nil {
		return err
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "glovebox-cache-extract-*.tar.xz")
	if err != nil {
		return fmt.Errorf("stage payload: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := copyAll(tmp, r); err != nil {
		return fmt.Errorf("stage payload: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", destDir, err)
	}
	return extract(ctx, tmp, destDir, progress)
}

// Cleanup deletes every entry whose age exceeds maxAge (spec §4.5
// "cleanup(max_age)"), returning the number of entries removed.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	rows, err := s.index.all()
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}
	removed := 0
	now := s.now()
	for _, row := range rows {
		if now.Sub(row.CreatedAt) > maxAge {
			s.removeEntry(ctx, row.Key)
			removed++
		}
	}
	return removed, nil
}

// Delete drops every entry for a repository (spec §4.5 "delete(repository)").
func (s *Store) Delete(ctx context.Context, repository string) (int, error) {
	rows, err := s.index.byRepository(repository)
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}
	for _, row := range rows {
		s.removeEntry(ctx, row.Key)
	}
	return len(rows), nil
}

// DeleteAll wipes the entire store, metadata-first then payload, so a
// crash mid-wipe leaves no dangling metadata pointing at a missing payload
// (spec §4.5 "delete_all").
func (s *Store) DeleteAll(ctx context.Context) error {
	rows, err := s.index.all()
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}
	for _, row := range rows {
		s.removeEntry(ctx, row.Key)
	}
	return nil
}

// removeEntry deletes metadata first, then payload, matching delete_all's
// crash-safety posture for single-entry removal too.
func (s *Store) removeEntry(ctx context.Context, hash string) {
	s.index.remove(hash)
	s.backend.Delete(ctx, metaKey(hash))
	s.backend.Delete(ctx, objectKey(hash))
}

// Stats reports aggregate store size and entry count.
func (s *Store) Stats() (totalSize int64, entryCount int, err error) {
	rows, err := s.index.all()
	if err != nil {
		return 0, 0, fmt.Errorf("list cache entries: %w", err)
	}
	for _, row := range rows {
		totalSize += row.SizeBytes
	}
	return totalSize, len(rows), nil
}
