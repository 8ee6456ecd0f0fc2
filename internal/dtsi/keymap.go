package dtsi

import (
	"fmt"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// defaultFormatting is used when a keyboard descriptor supplies no
// formatting rules (KeyWidth/KeyGap of zero).
var defaultFormatting = model.FormattingRules{KeyWidth: 10, KeyGap: 1}

// KeymapNode renders the `zmk,keymap` devicetree subtree: one child node
// per layer, each holding its binding sequence formatted per the profile's
// physical-grid formatting rules (spec §4.3 item 2).
func KeymapNode(doc *model.LayoutDocument, rules model.FormattingRules) string {
	if rules.KeyWidth <= 0 {
		rules.KeyWidth = defaultFormatting.KeyWidth
	}
	if rules.KeyGap <= 0 {
		rules.KeyGap = defaultFormatting.KeyGap
	}

	var b strings.Builder
	b.WriteString("keymap {\n")
	b.WriteString("\tcompatible = \"zmk,keymap\";\n\n")
	for i, layer := range doc.Layers {
		name := layerNodeName(doc, i)
		fmt.Fprintf(&b, "\tlayer_%s {\n", name)
		b.WriteString("\t\tbindings = <\n")
		b.WriteString(formatBindingRows(layer, rules))
		b.WriteString("\t\t>;\n")
		b.WriteString("\t};\n\n")
	}
	b.WriteString("};\n")
	return b.String()
}

func layerDefineLayerName(doc *model.LayoutDocument, i int) string {
	if i < len(doc.LayerNames) {
		return sanitizeDefineName(doc.LayerNames[i])
	}
	return fmt.Sprintf("%d", i)
}

// layerNodeName returns the devicetree node label for layer i, case
// preserved (see sanitizeNodeName).
func layerNodeName(doc *model.LayoutDocument, i int) string {
	if i < len(doc.LayerNames) {
		return sanitizeNodeName(doc.LayerNames[i])
	}
	return fmt.Sprintf("%d", i)
}

// formatBindingRows renders one layer's bindings, padding each entry to
// KeyWidth, separating columns by KeyGap spaces, and starting a new
// output line after any index listed in RowBreaks (spec §4.3 item 2).
func formatBindingRows(layer []model.Binding, rules model.FormattingRules) string {
	breaks := make(map[int]bool, len(rules.RowBreaks))
	for _, idx := range rules.RowBreaks {
		breaks[idx] = true
	}

	gap := strings.Repeat(" ", rules.KeyGap)
	var b strings.Builder
	b.WriteString("\t\t\t")
	for i, binding := range layer {
		text := RenderBinding(binding)
		if i > 0 {
			b.WriteString(gap)
		}
		b.WriteString(padRight(text, rules.KeyWidth))
		if breaks[i] && i != len(layer)-1 {
			b.WriteString("\n\t\t\t")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
