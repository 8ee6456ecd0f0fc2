package keymap

import (
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// parseBindingRow tokenizes a single `bindings = < ... >;` layer row
// (e.g. `&kp Q &mt LSHIFT A &trans`) into its binding tree, the inverse of
// dtsi.RenderBinding: each `&`-prefixed token opens a binding, and the
// plain tokens following it become leaf params until the next `&` token.
func parseBindingRow(raw string) []model.Binding {
	tokens := strings.Fields(angleValue(raw))
	var out []model.Binding
	var current *model.Binding
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "&") {
			if current != nil {
				out = append(out, *current)
			}
			b := model.NewBinding(tok)
			current = &b
			continue
		}
		if current == nil {
			b := model.NewBinding(tok)
			current = &b
			continue
		}
		current.Params = append(current.Params, model.NewBinding(tok))
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

// parseSingleBinding parses one `&kp Q`-shaped binding expression.
func parseSingleBinding(raw string) model.Binding {
	row := parseBindingRow("<" + raw + ">")
	if len(row) == 0 {
		return model.Binding{}
	}
	return row[0]
}
