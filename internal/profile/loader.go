package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Loader resolves keyboard descriptors by id, caching typed results in
// process (spec §4.1: "cached in process by keyboard id; cache is cleared
// when user-config is reloaded"), mirroring original_source's
// module-level `_keyboard_configs` dict.
type Loader struct {
	extraPaths []string

	mu    sync.Mutex
	cache map[string]*model.KeyboardDescriptor
}

// NewLoader builds a Loader with additional search paths injected by
// user-config (spec §4.1 item 4), searched after the built-in directory,
// XDG config directory, and GLOVEBOX_KEYBOARD_PATH.
func NewLoader(extraPaths ...string) *Loader {
	return &Loader{extraPaths: extraPaths, cache: map[string]*model.KeyboardDescriptor{}}
}

// ClearCache drops every cached keyboard descriptor, used when user-config
// is reloaded (spec §4.1).
func (l *Loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = map[string]*model.KeyboardDescriptor{}
}

// Load resolves and returns the named keyboard descriptor, applying
// parent-chain inheritance, decoding once, and caching the result.
func (l *Loader) Load(name string) (*model.KeyboardDescriptor, error) {
	l.mu.Lock()
	if kd, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return kd, nil
	}
	l.mu.Unlock()

	merged, err := l.loadMerged(name, map[string]bool{})
	if err != nil {
		return nil, err
	}

	kd, err := decodeDescriptor(merged)
	if err != nil {
		return nil, xerrors.ErrProfileInvalid.WithCause(err).WithMessagef("invalid keyboard configuration: %s", name)
	}
	if kd.Keyboard != name {
		// Name mismatch between the file's own `keyboard` field and the id
		// it was looked up under; the filename is authoritative (spec §4.1
		// "first hit wins"), mirroring original_source's auto-fix.
		kd.Keyboard = name
	}

	l.mu.Lock()
	l.cache[name] = kd
	l.mu.Unlock()
	return kd, nil
}

// loadMerged reads the descriptor file for name as a generic map and
// recursively merges it over its parent chain (root first, so each child
// wins per leaf key over its ancestors), detecting cycles along the way.
func (l *Loader) loadMerged(name string, seen map[string]bool) (map[string]interface{}, error) {
	if seen[name] {
		return nil, xerrors.ErrProfileInvalid.WithMessagef("keyboard %q has a circular parent chain", name)
	}
	seen[name] = true

	path, err := l.find(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.ErrProfileInvalid.WithCause(err).WithMessagef("reading %s", path)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, xerrors.ErrProfileInvalid.WithCause(err).WithMessagef("parsing %s", path)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	parentName, _ := raw["parent"].(string)
	if parentName == "" {
		return raw, nil
	}
	parentMerged, err := l.loadMerged(parentName, seen)
	if err != nil {
		return nil, err
	}
	return deepMerge(parentMerged, raw), nil
}

// find returns the path to <name>.yaml or <name>.yml in the first search
// directory that has one (spec §4.1: "first hit wins").
func (l *Loader) find(name string) (string, error) {
	for _, dir := range SearchPaths(l.extraPaths) {
		for _, ext := range []string{".yaml", ".yml"} {
			candidate := filepath.Join(dir, name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", xerrors.ErrProfileNotFound.WithMessagef("keyboard %q not found in search paths", name)
}

// decodeDescriptor converts a generic YAML-decoded map into a typed
// KeyboardDescriptor by round-tripping through JSON, so the struct's
// `json` tags (glovebox's snake_case wire format, spec §3) apply -
// the same idiom as ldfctl/internal/output.PrintYAML, run in reverse.
func decodeDescriptor(merged map[string]interface{}) (*model.KeyboardDescriptor, error) {
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var kd model.KeyboardDescriptor
	if err := json.Unmarshal(raw, &kd); err != nil {
		return nil, err
	}
	return &kd, nil
}

// Available returns the sorted list of keyboard ids discoverable across
// every search directory.
func (l *Loader) Available() []string {
	seen := map[string]bool{}
	for _, dir := range SearchPaths(l.extraPaths) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := filepath.Ext(e.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			seen[e.Name()[:len(e.Name())-len(ext)]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sortStrings(out)
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
