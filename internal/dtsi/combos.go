package dtsi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// CombosNode renders one devicetree node per combo (spec §4.3 item 4). A
// combo's `layers` sequence is resolved from layer names to layer indices
// via doc.LayerIndex; an empty Layers list means "all layers", and is
// emitted without a `layers` property so ZMK applies its own default.
func CombosNode(doc *model.LayoutDocument) string {
	if len(doc.Combos) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("combos {\n")
	b.WriteString("\tcompatible = \"zmk,combos\";\n")
	for _, c := range doc.Combos {
		fmt.Fprintf(&b, "\tcombo_%s {\n", identifier(c.Name))
		if c.TimeoutMs != "" {
			fmt.Fprintf(&b, "\t\ttimeout-ms = %s;\n", numericCell(c.TimeoutMs))
		}
		fmt.Fprintf(&b, "\t\tkey-positions = <%s>;\n", joinInts(c.KeyPositions))
		fmt.Fprintf(&b, "\t\tbindings = <%s>;\n", RenderBinding(c.Binding))
		if len(c.Layers) > 0 {
			fmt.Fprintf(&b, "\t\tlayers = <%s>;\n", joinInts(resolveLayerIndices(doc, c.Layers)))
		}
		b.WriteString("\t};\n")
	}
	b.WriteString("};\n")
	return b.String()
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

func resolveLayerIndices(doc *model.LayoutDocument, names []string) []int {
	out := make([]int, 0, len(names))
	for _, n := range names {
		if idx := doc.LayerIndex(n); idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}
