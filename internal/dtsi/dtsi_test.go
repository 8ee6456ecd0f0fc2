package dtsi

import (
	"strings"
	"testing"
	"time"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/variables"
)

func fixedOptions() Options {
	return Options{DisableTimestamp: true, Now: func() time.Time { return time.Unix(0, 0) }}
}

// TestMinimalCompile covers spec §8 concrete scenario 1.
func TestMinimalCompile(t *testing.T) {
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

	out, err := Render(p, doc, fixedOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(out, "&kp Q") != 1 {
		t.Fatalf("expected exactly one `&kp Q`, got: %s", out)
	}

	conf := Kconfig(p, nil)
	if !strings.Contains(conf, `CONFIG_ZMK_KEYBOARD_NAME="Test"`) {
		t.Fatalf("expected CONFIG_ZMK_KEYBOARD_NAME=\"Test\", got: %s", conf)
	}
}

// TestVariableChainCompile covers spec §8 concrete scenario 2.
func TestVariableChainCompile(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}}},
		Variables: map[string]model.Value{
			"a": model.NewString("${b}"),
			"b": model.NewNumber(200),
		},
		HoldTaps: []model.HoldTap{{Name: "hm", TappingTermMs: "${a}"}},
	}
	flat, err := variables.Flatten(doc)
	if err != nil {
		t.Fatalf("unexpected flatten error: %v", err)
	}
	node := HoldTapsNode(flat.HoldTaps)
	if !strings.Contains(node, "tapping-term-ms = <200>;") {
		t.Fatalf("expected tapping-term-ms = <200>;, got: %s", node)
	}
}

func TestKeymapNodeEmptyLayerNoStrayBraces(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&trans"}}},
	}
	node := KeymapNode(doc, model.FormattingRules{})
	if !strings.Contains(node, "&trans") {
		t.Fatalf("expected &trans binding, got: %s", node)
	}
}

func TestCombosNodeEmptyWhenNone(t *testing.T) {
	doc := &model.LayoutDocument{Keyboard: "t", LayerNames: []string{"a"}, Layers: [][]model.Binding{{{Value: "&trans"}}}}
	if CombosNode(doc) != "" {
		t.Fatal("expected empty combos node for zero combos")
	}
	if HoldTapsNode(nil) != "" {
		t.Fatal("expected empty hold-taps node for zero hold-taps")
	}
	if MacrosNode(nil) != "" {
		t.Fatal("expected empty macros node for zero macros")
	}
}

func TestComboLayersResolvedToIndices(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "t",
		LayerNames: []string{"base", "nav"},
		Layers:     [][]model.Binding{{{Value: "&trans"}}, {{Value: "&trans"}}},
		Combos: []model.Combo{
			{Name: "esc", KeyPositions: []int{0, 1}, Binding: model.Binding{Value: "&kp", Params: []model.Binding{{Value: "ESC"}}}, Layers: []string{"nav"}},
		},
	}
	node := CombosNode(doc)
	if !strings.Contains(node, "layers = <1>;") {
		t.Fatalf("expected combo layers resolved to index 1, got: %s", node)
	}
}

func TestLayerDefines(t *testing.T) {
	doc := &model.LayoutDocument{LayerNames: []string{"base", "num-pad"}, Layers: [][]model.Binding{{{Value: "&trans"}}, {{Value: "&trans"}}}}
	out := LayerDefines(doc)
	if !strings.Contains(out, "#define LAYER_BASE 0") || !strings.Contains(out, "#define LAYER_NUM_PAD 1") {
		t.Fatalf("unexpected layer defines: %s", out)
	}
}
