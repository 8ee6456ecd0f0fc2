// Package diffpatch implements the semantic diff, RFC-6902 JSON Patch, and
// DTSI unified-diff operations named by spec §4 item F. New code — no
// teacher analog for layout diffing exists in the pack — ported from
// `original_source/glovebox/layout/diffing/diff.py`'s `LayoutDiffSystem`,
// re-expressed over typed model.LayoutDocument values instead of Python
// dicts.
package diffpatch

import "strings"

// Operation is one RFC-6902 JSON Patch entry.
type Operation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
	From  string      `json:"from,omitempty"`
}

// escapeSegment applies RFC-6901 JSON Pointer escaping.
func escapeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	seg = strings.ReplaceAll(seg, "/", "~1")
	return seg
}

func unescapeSegment(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	seg = strings.ReplaceAll(seg, "~0", "~")
	return seg
}

func joinPath(base, seg string) string {
	return base + "/" + escapeSegment(seg)
}

// splitPointer splits a JSON Pointer into its unescaped segments, dropping
// the leading empty segment produced by the pointer's initial "/".
func splitPointer(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")[1:]
	for i, p := range parts {
		parts[i] = unescapeSegment(p)
	}
	return parts
}
