package dtsi

import (
	"fmt"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// MacrosNode renders one devicetree node per macro (spec §4.3 item 5);
// binding sequences are serialized recursively via RenderBinding.
func MacrosNode(macros []model.Macro) string {
	if len(macros) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("macros {\n")
	for _, m := range macros {
		fmt.Fprintf(&b, "\t%s: %s {\n", identifier(m.Name), identifier(m.Name))
		b.WriteString("\t\tcompatible = \"zmk,behavior-macro\";\n")
		fmt.Fprintf(&b, "\t\tlabel = %q;\n", strings.ToUpper(identifier(m.Name)))
		b.WriteString("\t\t#binding-cells = <0>;\n")
		if m.WaitMs != "" {
			fmt.Fprintf(&b, "\t\twait-ms = %s;\n", numericCell(m.WaitMs))
		}
		if m.TapMs != "" {
			fmt.Fprintf(&b, "\t\ttap-ms = %s;\n", numericCell(m.TapMs))
		}
		if len(m.Bindings) > 0 {
			names := make([]string, len(m.Bindings))
			for i, bd := range m.Bindings {
				names[i] = RenderBinding(bd)
			}
			fmt.Fprintf(&b, "\t\tbindings = %s;\n", RenderBindingList(names))
		}
		b.WriteString("\t};\n")
	}
	b.WriteString("};\n")
	return b.String()
}
