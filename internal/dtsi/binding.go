// Package dtsi renders a resolved layout document and profile into the six
// textual products named by spec §4.3: layer defines, the keymap node,
// hold-tap nodes, combos node, macros node, and input-listeners node, plus
// the Kconfig fragment and the fixed template context consumed by the
// keyboard's own template text. New code (no teacher analog for ZMK
// devicetree output), grounded in spec §4.3/§6 and the wire-format
// examples of spec §8.
package dtsi

import (
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// RenderBinding serializes a binding tree to its devicetree text form,
// e.g. `&kp Q` or `&mt LSHIFT A`.
func RenderBinding(b model.Binding) string {
	if len(b.Params) == 0 {
		return b.Value
	}
	parts := make([]string, 0, len(b.Params)+1)
	parts = append(parts, b.Value)
	for _, p := range b.Params {
		parts = append(parts, RenderBinding(p))
	}
	return strings.Join(parts, " ")
}

// RenderBindingList serializes a phandle-array binding reference list,
// e.g. hold-tap/macro `bindings = <&kp>, <&kp>;` entries.
func RenderBindingList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = "<" + n + ">"
	}
	return strings.Join(parts, ", ")
}
