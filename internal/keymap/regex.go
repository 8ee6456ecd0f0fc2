package keymap

import (
	"regexp"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
)

// regexBackend is the legacy-compatibility engine (spec §4.4): it locates
// nodes with a single-level `name { ... }` pattern that does not track
// brace depth. That is adequate for the flat hold-tap/combo/macro/layer
// nodes, but it truncates at the first inner `}` for anything with nested
// children (only input listeners have those) — a known, documented
// limitation that is why the AST backend is authoritative on disagreement.
type regexBackend struct{}

var flatNode = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*(?::\s*[A-Za-z_][\w-]*\s*)?\{([^{}]*)\}`)

func flatNodes(body string) []childNode {
	var out []childNode
	for _, m := range flatNode.FindAllStringSubmatch(body, -1) {
		out = append(out, childNode{label: m[1], body: m[2]})
	}
	return out
}

func (regexBackend) parseKeymapNode(text string) ([]string, [][]model.Binding, []Diagnostic) {
	var names []string
	var layers [][]model.Binding
	for _, node := range flatNodes(text) {
		if !strings.HasPrefix(node.label, "layer_") {
			continue
		}
		f := fields(node.body)
		bindings, ok := f["bindings"]
		if !ok {
			continue
		}
		names = append(names, strings.TrimPrefix(node.label, "layer_"))
		layers = append(layers, parseBindingRow(bindings))
	}
	return names, layers, nil
}

func (regexBackend) parseHoldTaps(text string) ([]model.HoldTap, []Diagnostic) {
	var out []model.HoldTap
	for _, node := range flatNodes(text) {
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
	return out, nil
}

func (regexBackend) parseCombos(text string, layerNames []string) ([]model.Combo, []Diagnostic) {
	var out []model.Combo
	for _, node := range flatNodes(text) {
		f := fields(node.body)
		combo := model.Combo{
			Name:         strings.TrimPrefix(node.label, "combo_"),
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

func (regexBackend) parseMacros(text string) ([]model.Macro, []Diagnostic) {
	var out []model.Macro
	for _, node := range flatNodes(text) {
		f := fields(node.body)
		if f["compatible"] != `"zmk,behavior-macro"` {
			continue
		}
		m := model.Macro{Name: node.label, WaitMs: cellValue(f["wait-ms"]), TapMs: cellValue(f["tap-ms"])}
		for _, name := range phandleList(f["bindings"]) {
			m.Bindings = append(m.Bindings, parseSingleBinding(name))
		}
		out = append(out, m)
	}
	return out, nil
}

var listenerHeader = regexp.MustCompile(`&([\w-]+)\s*\{`)

func (regexBackend) parseInputListeners(source string) ([]model.InputListener, []Diagnostic) {
	var out []model.InputListener
	var diags []Diagnostic
	locs := listenerHeader.FindAllStringSubmatchIndex(source, -1)
	for _, loc := range locs {
		name := source[loc[2]:loc[3]]
		openBrace := loc[1] - 1
		closeIdx := strings.Index(source[openBrace:], "}")
		if closeIdx < 0 {
			continue
		}
		body := source[openBrace+1 : openBrace+closeIdx]
		listener := model.InputListener{Name: name}
		for _, sub := range flatNodes(body) {
			f := fields(sub.body)
			node := model.InputListenerNode{Code: sub.label}
			if raw, ok := f["input-processors"]; ok {
				node.Processors = strings.Fields(angleValue(raw))
			}
			listener.Nodes = append(listener.Nodes, node)
		}
		if len(listener.Nodes) == 0 {
			diags = append(diags, Diagnostic{Message: "regex backend could not recover nested nodes for listener " + name})
		}
		out = append(out, listener)
	}
	return out, diags
}
