package diffpatch

import (
	"encoding/json"
	"testing"

	"github.com/caddyglow/glovebox/internal/model"
)

func baseLayout() *model.LayoutDocument {
	return &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base", "nav"},
		Layers: [][]model.Binding{
			{{Value: "&kp", Params: []model.Binding{{Value: "Q"}}}, {Value: "&trans"}},
			{{Value: "&trans"}, {Value: "&trans"}},
		},
	}
}

// TestDiffApplyRoundTrip covers spec §8 concrete scenario 4.
func TestDiffApplyRoundTrip(t *testing.T) {
	base := baseLayout()
	modified := base.Clone()
	modified.Layers[0][0] = model.Binding{Value: "&kp", Params: []model.Binding{{Value: "A"}}}

	result, err := Diff(base, modified)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if len(result.Patch) == 0 {
		t.Fatal("expected a non-empty patch")
	}

	applied, err := Apply(base, result.Patch)
	if err != nil {
		t.Fatalf("apply error: %v", err)
	}

	wantJSON, _ := json.Marshal(modified)
	gotJSON, _ := json.Marshal(applied)
	if string(wantJSON) != string(gotJSON) {
		t.Fatalf("apply(base, diff(base,modified)) != modified\nwant: %s\ngot:  %s", wantJSON, gotJSON)
	}
}

func TestSummaryDetectsModifiedLayer(t *testing.T) {
	base := baseLayout()
	modified := base.Clone()
	modified.Layers[0][0] = model.Binding{Value: "&kp", Params: []model.Binding{{Value: "A"}}}

	result, err := Diff(base, modified)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if len(result.Summary.Layers.Modified) != 1 || result.Summary.Layers.Modified[0] != 0 {
		t.Fatalf("expected layer 0 to be reported modified, got %+v", result.Summary.Layers)
	}
}

func TestSummaryDetectsAddedHoldTap(t *testing.T) {
	base := baseLayout()
	modified := base.Clone()
	modified.HoldTaps = []model.HoldTap{{Name: "hm", TappingTermMs: "200"}}

	result, err := Diff(base, modified)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if len(result.Summary.HoldTaps.Added) != 1 || result.Summary.HoldTaps.Added[0] != "hm" {
		t.Fatalf("expected hold-tap 'hm' to be reported added, got %+v", result.Summary.HoldTaps)
	}
}

func TestMovementsTracksWithinLayerMove(t *testing.T) {
	base := &model.LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers:     [][]model.Binding{{{Value: "&kp", Params: []model.Binding{{Value: "A"}}}, {Value: "&trans"}}},
	}
	modified := base.Clone()
	modified.Layers[0][0] = model.Binding{Value: "&trans"}
	modified.Layers[0][1] = model.Binding{Value: "&kp", Params: []model.Binding{{Value: "A"}}}

	result, err := Diff(base, modified)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if len(result.Movements.WithinLayer) == 0 {
		t.Fatalf("expected a within-layer movement, got %+v", result.Movements)
	}
}

func TestDTSIDiffProducesUnifiedFormat(t *testing.T) {
	out, err := DTSIDiff("a.keymap", "b.keymap", "line1\nline2\n", "line1\nline3\n")
	if err != nil {
		t.Fatalf("dtsidiff error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty unified diff for differing text")
	}
}

func TestDTSIDiffEmptyWhenIdentical(t *testing.T) {
	out, err := DTSIDiff("a.keymap", "b.keymap", "same\n", "same\n")
	if err != nil {
		t.Fatalf("dtsidiff error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty diff for identical text, got %q", out)
	}
}

func TestStatisticsCountsReplacements(t *testing.T) {
	base := baseLayout()
	modified := base.Clone()
	modified.Layers[0][0] = model.Binding{Value: "&kp", Params: []model.Binding{{Value: "A"}}}

	result, err := Diff(base, modified)
	if err != nil {
		t.Fatalf("diff error: %v", err)
	}
	if result.Statistics.TotalOperations != len(result.Patch) {
		t.Fatalf("statistics total mismatch: %d vs %d", result.Statistics.TotalOperations, len(result.Patch))
	}
	if result.Statistics.Replacements == 0 {
		t.Fatal("expected at least one replacement operation")
	}
}
