package dtsi

import (
	"fmt"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// LayerDefines renders numbered `#define LAYER_<NAME> <index>` lines in
// layer order (spec §4.3 item 1).
func LayerDefines(doc *model.LayoutDocument) string {
	var b strings.Builder
	for i, name := range doc.LayerNames {
		fmt.Fprintf(&b, "#define LAYER_%s %d\n", sanitizeDefineName(name), i)
	}
	return b.String()
}

// sanitizeDefineName upper-cases a layer name and replaces any character
// that isn't valid in a C preprocessor identifier with an underscore.
func sanitizeDefineName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// sanitizeNodeName replaces any character invalid in a devicetree node
// label with an underscore, preserving case so `layer_<name>` round-trips
// back through keymap.Parse to the original layerNames entry (spec §8).
func sanitizeNodeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
