package variables

import (
	"testing"

	"github.com/caddyglow/glovebox/internal/model"
)

func TestFlattenResolvesHoldTapChain(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}}},
		Variables: map[string]model.Value{
			"a": model.NewString("${b}"),
			"b": model.NewNumber(200),
		},
		HoldTaps: []model.HoldTap{
			{Name: "hm", TappingTermMs: "${a}"},
		},
	}

	flat, err := Flatten(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flat.HoldTaps[0].TappingTermMs != "200" {
		t.Fatalf("expected tapping-term-ms to resolve to 200, got %q", flat.HoldTaps[0].TappingTermMs)
	}
	if flat.Variables != nil {
		t.Fatal("expected flattened document to have no variables map")
	}
	// original document must be unmodified
	if doc.HoldTaps[0].TappingTermMs != "${a}" {
		t.Fatal("Flatten must not mutate the source document")
	}
}

func TestFlattenUndefinedVariableFails(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}}},
		HoldTaps:   []model.HoldTap{{Name: "hm", Flavor: "${nope}"}},
	}
	if _, err := Flatten(doc); err == nil {
		t.Fatal("expected error for undefined variable")
	}
}

func TestFlattenResolvesBindingParams(t *testing.T) {
	doc := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers: [][]model.Binding{{
			{Value: "&mt", Params: []model.Binding{{Value: "${mod}"}, {Value: "A"}}},
		}},
		Variables: map[string]model.Value{"mod": model.NewString("LSHIFT")},
	}
	flat, err := Flatten(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flat.Layers[0][0].Params[0].Value != "LSHIFT" {
		t.Fatalf("expected LSHIFT, got %q", flat.Layers[0][0].Params[0].Value)
	}
}
