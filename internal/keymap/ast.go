package keymap

import (
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// structuralBackend extracts devicetree structure from scoped text regions.
// Both backends emit the same layout document shape; astBackend is
// authoritative for disagreements (spec §4.4).
type structuralBackend interface {
	parseKeymapNode(text string) (layerNames []string, layers [][]model.Binding, diags []Diagnostic)
	parseHoldTaps(text string) ([]model.HoldTap, []Diagnostic)
	parseCombos(text string, layerNames []string) ([]model.Combo, []Diagnostic)
	parseMacros(text string) ([]model.Macro, []Diagnostic)
	parseInputListeners(source string) ([]model.InputListener, []Diagnostic)
}

// astBackend is brace-depth aware: it tracks nesting explicitly, so a
// listener's nested processor subnodes never get truncated at the first
// closing brace encountered.
type astBackend struct{}

func (astBackend) parseKeymapNode(text string) ([]string, [][]model.Binding, []Diagnostic) {
	var names []string
	var layers [][]model.Binding
	var diags []Diagnostic
	for _, node := range topLevelNodes(text) {
		if !strings.HasPrefix(node.label, "layer_") {
			continue
		}
		f := fields(node.body)
		bindings, ok := f["bindings"]
		if !ok {
			diags = append(diags, Diagnostic{Message: "layer " + node.label + " has no bindings property"})
			continue
		}
		names = append(names, strings.TrimPrefix(node.label, "layer_"))
		layers = append(layers, parseBindingRow(bindings))
	}
	return names, layers, diags
}

func (astBackend) parseHoldTaps(text string) ([]model.HoldTap, []Diagnostic) {
	var out []model.HoldTap
	var diags []Diagnostic
	for _, node := range topLevelNodes(text) {
		f := fields(node.body)
		if f["compatible"] != `"zmk,behavior-hold-tap"` {
			continue
		}
		out = append(out, model.HoldTap{
			Name:          node.label,
			TappingTermMs: cellValue(f["tapping-term-ms"]),
			QuickTapMs:    cellValue(f["quick-tap-ms"]),
			Flavor:        quotedString(f["flavor"]),
			HoldTrigger:   angleValue(f["hold-trigger-key-positions"]),
			RetroTap:      hasFlag(node.body, "retro-tap"),
			Bindings:      phandleList(f["bindings"]),
		})
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		diags = append(diags, Diagnostic{Message: "behaviors block had no recognizable hold-tap nodes"})
	}
	return out, diags
}

func (astBackend) parseCombos(text string, layerNames []string) ([]model.Combo, []Diagnostic) {
	var out []model.Combo
	for _, node := range topLevelNodes(text) {
		f := fields(node.body)
		name := strings.TrimPrefix(node.label, "combo_")
		combo := model.Combo{
			Name:         name,
			TimeoutMs:    cellValue(f["timeout-ms"]),
			KeyPositions: intList(f["key-positions"]),
			Binding:      parseSingleBinding(angleValue(f["bindings"])),
		}
		if raw, ok := f["layers"]; ok {
			for _, idx := range intList(raw) {
				if idx >= 0 && idx < len(layerNames) {
					combo.Layers = append(combo.Layers, layerNames[idx])
				}
			}
		}
		out = append(out, combo)
	}
	return out, nil
}

func (astBackend) parseMacros(text string) ([]model.Macro, []Diagnostic) {
	var out []model.Macro
	for _, node := range topLevelNodes(text) {
		f := fields(node.body)
		if f["compatible"] != `"zmk,behavior-macro"` {
			continue
		}
		m := model.Macro{
			Name:   node.label,
			WaitMs: cellValue(f["wait-ms"]),
			TapMs:  cellValue(f["tap-ms"]),
		}
		for _, name := range phandleList(f["bindings"]) {
			m.Bindings = append(m.Bindings, parseSingleBinding(name))
		}
		out = append(out, m)
	}
	return out, nil
}

func (astBackend) parseInputListeners(source string) ([]model.InputListener, []Diagnostic) {
	var out []model.InputListener
	i := 0
	for {
		idx := strings.Index(source[i:], "&")
		if idx < 0 {
			break
		}
		start := i + idx + 1
		j := start
		for j < len(source) && isIdentChar(source[j]) {
			j++
		}
		if j == start {
			i = start
			continue
		}
		name := source[start:j]
		k := j
		for k < len(source) && (source[k] == ' ' || source[k] == '\t' || source[k] == '\n') {
			k++
		}
		if k >= len(source) || source[k] != '{' {
			i = j
			continue
		}
		body, end, ok := scanBraces(source, k)
		if !ok {
			break
		}
		listener := model.InputListener{Name: name}
		for _, sub := range topLevelNodes(body) {
			f := fields(sub.body)
			node := model.InputListenerNode{Code: sub.label}
			if raw, ok := f["input-processors"]; ok {
				node.Processors = strings.Fields(angleValue(raw))
			}
			listener.Nodes = append(listener.Nodes, node)
		}
		out = append(out, listener)
		i = end
	}
	return out, nil
}

// cellValue strips either the `<...>` or `"..."` wrapper from a devicetree
// property value, returning the bare text numericCell/quoting decided on.
func cellValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "<") {
		return angleValue(raw)
	}
	return quotedString(raw)
}
