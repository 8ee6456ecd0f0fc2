package keymap

import (
	"testing"

	"github.com/caddyglow/glovebox/internal/dtsi"
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
)

func sampleDoc() *model.LayoutDocument {
	return &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base", "nav"},
		Layers: [][]model.Binding{
			{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}, {Value: "&trans"}},
			{{Value: "&mt", Params: []model.Binding{{Value: "LSHIFT"}, {Value: "A"}}}, {Value: "&trans"}},
		},
		HoldTaps: []model.HoldTap{
			{Name: "hm", TappingTermMs: "200", QuickTapMs: "175", Flavor: "tap-preferred", Bindings: []string{"&kp", "&kp"}, RetroTap: true},
		},
		Combos: []model.Combo{
			{Name: "esc", KeyPositions: []int{0, 1}, Binding: model.Binding{Value: "&kp", Params: []model.Binding{{Value: "ESC"}}}, Layers: []string{"nav"}},
		},
		Macros: []model.Macro{
			{Name: "hello", WaitMs: "15", TapMs: "30", Bindings: []model.Binding{{Value: "&kp", Params: []model.Binding{{Value: "H"}}}, {Value: "&kp", Params: []model.Binding{{Value: "I"}}}}},
		},
		InputListeners: []model.InputListener{
			{Name: "trackpad_listener", Nodes: []model.InputListenerNode{{Code: "input_listener", Processors: []string{"&zip_xy_scaler"}}}},
		},
	}
}

func renderFull(doc *model.LayoutDocument) string {
	var out string
	out += dtsi.LayerDefines(doc)
	out += dtsi.KeymapNode(doc, model.FormattingRules{})
	out += dtsi.HoldTapsNode(doc.HoldTaps)
	out += dtsi.CombosNode(doc)
	out += dtsi.MacrosNode(doc.Macros)
	out += dtsi.InputListenersNode(doc.InputListeners)
	return out
}

func TestFullModeRoundTripsLayersHoldTapsCombosMacros(t *testing.T) {
	doc := sampleDoc()
	source := renderFull(doc)

	parsed, diags, err := Parse(source, Options{Mode: ModeFull, Backend: BackendAST})
	if err != nil {
		t.Fatalf("parse error: %v (diags: %v)", err, diags)
	}

	if len(parsed.LayerNames) != 2 || parsed.LayerNames[0] != "base" || parsed.LayerNames[1] != "nav" {
		t.Fatalf("unexpected layer names: %v", parsed.LayerNames)
	}
	if len(parsed.Layers) != 2 || len(parsed.Layers[0]) != 2 {
		t.Fatalf("unexpected layers: %+v", parsed.Layers)
	}
	if parsed.Layers[0][0].Value != "&kp" || parsed.Layers[0][0].Params[0].Value != "Q" {
		t.Fatalf("unexpected first binding: %+v", parsed.Layers[0][0])
	}

	if len(parsed.HoldTaps) != 1 {
		t.Fatalf("expected 1 hold-tap, got %d", len(parsed.HoldTaps))
	}
	ht := parsed.HoldTaps[0]
	if ht.TappingTermMs != "200" || ht.QuickTapMs != "175" || ht.Flavor != "tap-preferred" || !ht.RetroTap {
		t.Fatalf("unexpected hold-tap: %+v", ht)
	}
	if len(ht.Bindings) != 2 || ht.Bindings[0] != "&kp" {
		t.Fatalf("unexpected hold-tap bindings: %v", ht.Bindings)
	}

	if len(parsed.Combos) != 1 {
		t.Fatalf("expected 1 combo, got %d", len(parsed.Combos))
	}
	combo := parsed.Combos[0]
	if combo.KeyPositions[0] != 0 || combo.KeyPositions[1] != 1 {
		t.Fatalf("unexpected combo key positions: %v", combo.KeyPositions)
	}
	if len(combo.Layers) != 1 || combo.Layers[0] != "nav" {
		t.Fatalf("expected combo layer resolved back to name 'nav', got %v", combo.Layers)
	}

	if len(parsed.Macros) != 1 || parsed.Macros[0].WaitMs != "15" || len(parsed.Macros[0].Bindings) != 2 {
		t.Fatalf("unexpected macros: %+v", parsed.Macros)
	}

	if len(parsed.InputListeners) != 1 || len(parsed.InputListeners[0].Nodes) != 1 {
		t.Fatalf("unexpected input listeners (AST backend should see nested subnode): %+v", parsed.InputListeners)
	}
	if got := parsed.InputListeners[0].Nodes[0].Processors; len(got) != 1 || got[0] != "&zip_xy_scaler" {
		t.Fatalf("unexpected listener processors: %v", got)
	}
}

func TestRegexBackendMissesNestedListenerSubnodes(t *testing.T) {
	doc := sampleDoc()
	source := renderFull(doc)

	parsed, diags, err := Parse(source, Options{Mode: ModeFull, Backend: BackendRegex})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(parsed.InputListeners) != 1 {
		t.Fatalf("expected listener to still be found, got %d", len(parsed.InputListeners))
	}
	if len(parsed.InputListeners[0].Nodes) != 0 {
		t.Fatalf("expected regex backend to miss the nested subnode, got %+v", parsed.InputListeners[0].Nodes)
	}
	found := false
	for _, d := range diags {
		if d.Message != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a diagnostic explaining the regex backend's nested-node limitation")
	}
}

func TestTemplateModeExtractsOnlyKeymapNodeRegion(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}}},
	}
	kd := &model.KeyboardDescriptor{
		Keyboard: "test",
		Keymap:   model.KeymapConfig{TemplateText: "<<{{.keymap_node}}>>"},
	}
	p := &profile.Profile{Keyboard: kd}

	rendered, err := dtsi.Render(p, doc, dtsi.Options{DisableTimestamp: true})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	parsed, _, err := Parse(rendered, Options{Mode: ModeTemplate, Profile: p})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(parsed.Layers) != 1 || parsed.Layers[0][0].Value != "&kp" {
		t.Fatalf("unexpected parsed layers: %+v", parsed.Layers)
	}
}

func TestAutoModePicksTemplateWhenProfileHasTemplate(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&trans"}}},
	}
	kd := &model.KeyboardDescriptor{Keyboard: "test", Keymap: model.KeymapConfig{TemplateText: "{{.keymap_node}}"}}
	p := &profile.Profile{Keyboard: kd}
	rendered, err := dtsi.Render(p, doc, dtsi.Options{DisableTimestamp: true})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	parsed, _, err := Parse(rendered, Options{Mode: ModeAuto, Profile: p})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(parsed.Layers) != 1 {
		t.Fatalf("unexpected layers: %+v", parsed.Layers)
	}
}
