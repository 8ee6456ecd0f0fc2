package model

import "testing"

func minimalLayout() *LayoutDocument {
	return &LayoutDocument{
		Keyboard:   "test",
		LayerNames: []string{"base"},
		Layers: [][]Binding{
			{{Value: "&kp", Params: []Binding{{Value: "Q"}}}},
		},
	}
}

func TestValidateLayerNameCountMismatch(t *testing.T) {
	l := minimalLayout()
	l.LayerNames = append(l.LayerNames, "extra")
	if err := l.Validate(); err == nil {
		t.Fatal("expected error for mismatched layer_names/layers length")
	}
}

func TestValidateEmptyLayerRejected(t *testing.T) {
	l := minimalLayout()
	l.Layers[0] = nil
	if err := l.Validate(); err == nil {
		t.Fatal("expected error for layer with zero bindings")
	}
}

func TestValidateNegativeComboPosition(t *testing.T) {
	l := minimalLayout()
	l.Combos = []Combo{{Name: "c1", KeyPositions: []int{-1}}}
	if err := l.Validate(); err == nil {
		t.Fatal("expected error for negative combo key position")
	}
}

func TestCombosExceedingKeyCountIsWarningNotError(t *testing.T) {
	l := minimalLayout()
	l.Combos = []Combo{{Name: "virtual", KeyPositions: []int{999}}}
	if err := l.Validate(); err != nil {
		t.Fatalf("combo beyond key count must not fail validation: %v", err)
	}
	names := l.CombosExceedingKeyCount(42)
	if len(names) != 1 || names[0] != "virtual" {
		t.Fatalf("expected [virtual], got %v", names)
	}
}

func TestBindingDepthCap(t *testing.T) {
	b := Binding{Value: "&mt"}
	cur := &b
	for i := 0; i < maxBindingDepth+5; i++ {
		cur.Params = []Binding{{Value: "x"}}
		cur = &cur.Params[0]
	}
	if err := b.ValidateDepth(); err == nil {
		t.Fatal("expected depth-cap error")
	}
}

func TestTransparentBinding(t *testing.T) {
	if !(Binding{Value: "&trans"}).IsTransparent() {
		t.Fatal("expected &trans to be transparent")
	}
	if (Binding{Value: "&kp", Params: []Binding{{Value: "A"}}}).IsTransparent() {
		t.Fatal("did not expect &kp A to be transparent")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := minimalLayout()
	c := l.Clone()
	c.LayerNames[0] = "changed"
	if l.LayerNames[0] == "changed" {
		t.Fatal("clone mutated original")
	}
}
