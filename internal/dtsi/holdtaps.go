package dtsi

import (
	"fmt"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// HoldTapsNode renders one devicetree node per hold-tap behavior
// (spec §4.3 item 3). Timing fields may be plain strings (already resolved
// by the variable resolver) holding a numeric or textual value; numeric
// ones render as bare devicetree cells, non-numeric ones as quoted
// strings, matching ZMK's own hold-tap node grammar.
func HoldTapsNode(hts []model.HoldTap) string {
	if len(hts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("behaviors {\n")
	for _, ht := range hts {
		fmt.Fprintf(&b, "\t%s: %s {\n", identifier(ht.Name), identifier(ht.Name))
		b.WriteString("\t\tcompatible = \"zmk,behavior-hold-tap\";\n")
		fmt.Fprintf(&b, "\t\tlabel = %q;\n", strings.ToUpper(identifier(ht.Name)))
		b.WriteString("\t\t#binding-cells = <2>;\n")
		if ht.TappingTermMs != "" {
			fmt.Fprintf(&b, "\t\ttapping-term-ms = %s;\n", numericCell(ht.TappingTermMs))
		}
		if ht.QuickTapMs != "" {
			fmt.Fprintf(&b, "\t\tquick-tap-ms = %s;\n", numericCell(ht.QuickTapMs))
		}
		if ht.Flavor != "" {
			fmt.Fprintf(&b, "\t\tflavor = %q;\n", ht.Flavor)
		}
		if ht.HoldTrigger != "" {
			fmt.Fprintf(&b, "\t\thold-trigger-key-positions = <%s>;\n", ht.HoldTrigger)
		}
		if ht.RetroTap {
			b.WriteString("\t\tretro-tap;\n")
		}
		if len(ht.Bindings) > 0 {
			fmt.Fprintf(&b, "\t\tbindings = %s;\n", RenderBindingList(ht.Bindings))
		}
		b.WriteString("\t};\n")
	}
	b.WriteString("};\n")
	return b.String()
}

// numericCell renders value as a bare devicetree cell (`<200>`) when it
// looks like an integer, otherwise quotes it as a string literal. A
// reference left unresolved in edit-mode falls into the latter case.
func numericCell(value string) string {
	if isInteger(value) {
		return "<" + value + ">"
	}
	return fmt.Sprintf("%q", value)
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// identifier lowercases name and replaces any devicetree-illegal label
// character with an underscore.
func identifier(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
