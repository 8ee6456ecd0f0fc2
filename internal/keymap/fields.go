package keymap

import (
	"regexp"
	"strconv"
	"strings"
)

var fieldPattern = regexp.MustCompile(`([A-Za-z0-9_-]+)\s*=\s*([^;]*);`)

// fields extracts every `name = value;` property in body into a map keyed
// by property name, trimmed of surrounding whitespace.
func fields(body string) map[string]string {
	out := map[string]string{}
	for _, m := range fieldPattern.FindAllStringSubmatch(body, -1) {
		out[m[1]] = strings.TrimSpace(m[2])
	}
	return out
}

// hasFlag reports whether a bare boolean property (no `= value`, e.g.
// `retro-tap;`) appears in body.
func hasFlag(body, name string) bool {
	re := regexp.MustCompile(`(?:^|[\s;{])` + regexp.QuoteMeta(name) + `\s*;`)
	return re.MatchString(body)
}

// angleValue strips a single `< ... >` wrapper and trims its content.
func angleValue(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "<")
	raw = strings.TrimSuffix(raw, ">")
	return strings.TrimSpace(raw)
}

var phandleGroup = regexp.MustCompile(`<([^<>]*)>`)

// phandleList extracts each `<...>` group's inner text verbatim, for the
// comma-separated `<&kp>, <&kp>` reference-list grammar used by hold-tap
// and macro `bindings` properties.
func phandleList(raw string) []string {
	matches := phandleGroup.FindAllStringSubmatch(raw, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func quotedString(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

func intList(raw string) []int {
	raw = angleValue(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Fields(raw)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
