package cachestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/caddyglow/glovebox/internal/model"
)

// index is a secondary sqlite lookup over cache entries, grounded on
// ldfd/db's ArtifactCacheRepository (source_id/version keyed rows, LRU
// queries, total-size aggregation). Unlike ldfd/db it is not the source of
// truth: the JSON metadata sidecar written next to each payload is (spec
// §6.5), so a missing or corrupt index is rebuilt by walking sidecars
// rather than treated as data loss.
type idx struct {
	db *sql.DB
}

func openIndex(path string) (*idx, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache index: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		branch TEXT NOT NULL,
		manifest_commit TEXT,
		level TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		last_access DATETIME NOT NULL,
		cached_components TEXT NOT NULL,
		auto_detected INTEGER NOT NULL DEFAULT 0,
		auto_detected_source TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cache_entries_repo_branch ON cache_entries(repository, branch);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache index schema: %w", err)
	}
	return &idx{db: db}, nil
}

func (i *idx) close() error {
	return i.db.Close()
}

func (i *idx) upsert(key string, m model.CacheEntryMetadata) error {
	components, err := json.Marshal(m.CachedComponents)
	if err != nil {
		return fmt.Errorf("marshal cached components: %w", err)
	}
	_, err = i.db.Exec(`
		INSERT INTO cache_entries (key, repository, branch, manifest_commit, level, size_bytes,
			created_at, last_access, cached_components, auto_detected, auto_detected_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			repository=excluded.repository, branch=excluded.branch,
			manifest_commit=excluded.manifest_commit, level=excluded.level,
			size_bytes=excluded.size_bytes, last_access=excluded.last_access,
			cached_components=excluded.cached_components,
			auto_detected=excluded.auto_detected, auto_detected_source=excluded.auto_detected_source`,
		key, m.Repository, m.Branch, m.ManifestCommit, string(m.CacheLevel), m.SizeBytes,
		m.CreatedAt, m.LastAccess, string(components), m.AutoDetected, m.AutoDetectedSource,
	)
	if err != nil {
		return fmt.Errorf("upsert cache index row %s: %w", key, err)
	}
	return nil
}

func (i *idx) touch(key string, now time.Time) error {
	_, err := i.db.Exec(`UPDATE cache_entries SET last_access = ? WHERE key = ?`, now, key)
	return err
}

func (i *idx) remove(key string) error {
	_, err := i.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

func (i *idx) get(key string) (*model.CacheEntryMetadata, error) {
	row := i.db.QueryRow(`
		SELECT key, repository, branch, manifest_commit, level, size_bytes,
			created_at, last_access, cached_components, auto_detected, auto_detected_source
		FROM cache_entries WHERE key = ?`, key)
	return scanEntry(row)
}

func (i *idx) byRepoBranch(repository, branch string) ([]model.CacheEntryMetadata, error) {
	rows, err := i.db.Query(`
		SELECT key, repository, branch, manifest_commit, level, size_bytes,
			created_at, last_access, cached_components, auto_detected, auto_detected_source
		FROM cache_entries WHERE repository = ? AND branch = ?`, repository, branch)
	if err != nil {
		return nil, fmt.Errorf("query cache index: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (i *idx) byRepository(repository string) ([]model.CacheEntryMetadata, error) {
	rows, err := i.db.Query(`
		SELECT key, repository, branch, manifest_commit, level, size_bytes,
			created_at, last_access, cached_components, auto_detected, auto_detected_source
		FROM cache_entries WHERE repository = ?`, repository)
	if err != nil {
		return nil, fmt.Errorf("query cache index: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (i *idx) all() ([]model.CacheEntryMetadata, error) {
	rows, err := i.db.Query(`
		SELECT key, repository, branch, manifest_commit, level, size_bytes,
			created_at, last_access, cached_components, auto_detected, auto_detected_source
		FROM cache_entries`)
	if err != nil {
		return nil, fmt.Errorf("query cache index: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntry(row *sql.Row) (*model.CacheEntryMetadata, error) {
	var key, components string
	var m model.CacheEntryMetadata
	var level string
	err := row.Scan(&key, &m.Repository, &m.Branch, &m.ManifestCommit, &level, &m.SizeBytes,
		&m.CreatedAt, &m.LastAccess, &components, &m.AutoDetected, &m.AutoDetectedSource)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan cache index row: %w", err)
	}
	m.Key = key
	m.CacheLevel = model.CacheLevel(level)
	if err := json.Unmarshal([]byte(components), &m.CachedComponents); err != nil {
		return nil, fmt.Errorf("unmarshal cached components: %w", err)
	}
	return &m, nil
}

func scanEntries(rows *sql.Rows) ([]model.CacheEntryMetadata, error) {
	var out []model.CacheEntryMetadata
	for rows.Next() {
		var key, components, level string
		var m model.CacheEntryMetadata
		if err := rows.Scan(&key, &m.Repository, &m.Branch, &m.ManifestCommit, &level, &m.SizeBytes,
			&m.CreatedAt, &m.LastAccess, &components, &m.AutoDetected, &m.AutoDetectedSource); err != nil {
			return nil, fmt.Errorf("scan cache index row: %w", err)
		}
		m.Key = key
		m.CacheLevel = model.CacheLevel(level)
		if err := json.Unmarshal([]byte(components), &m.CachedComponents); err != nil {
			return nil, fmt.Errorf("unmarshal cached components: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// rebuild repopulates the index by walking every metadata.json sidecar
// under root, used when the sqlite file is missing or was deleted out from
// under the store (spec §6.5: JSON sidecar is the source of truth).
func (i *idx) rebuild(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != "metadata.json" {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		var m model.CacheEntryMetadata
		if jsonErr := json.Unmarshal(data, &m); jsonErr != nil {
			return nil
		}
		return i.upsert(m.Key, m)
	})
}
