package diffpatch

import "github.com/caddyglow/glovebox/internal/model"

// LayerChanges reports layer-count and per-index layer changes (ported
// from diff.py's `_analyze_layout_changes` "layers" section).
type LayerChanges struct {
	Added      []int `json:"added,omitempty"`
	Removed    []int `json:"removed,omitempty"`
	Modified   []int `json:"modified,omitempty"`
	Reordered  bool  `json:"reordered,omitempty"`
}

// RenamedLayer records a layer name change at a shared index.
type RenamedLayer struct {
	Index int    `json:"index"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// LayerNameChanges reports layer-name renames and whether layer order
// changed while the name set stayed the same.
type LayerNameChanges struct {
	Renamed      []RenamedLayer `json:"renamed,omitempty"`
	OrderChanged bool           `json:"orderChanged,omitempty"`
}

// BehaviorChanges reports added/removed/modified behaviors by name, used
// for hold-taps, combos, macros, and input listeners alike.
type BehaviorChanges struct {
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
	Modified []string `json:"modified,omitempty"`
}

// CustomCodeChanges flags whether the opaque custom-devicetree or
// custom-defined-behaviors text changed.
type CustomCodeChanges struct {
	DevicetreeChanged bool `json:"devicetreeChanged,omitempty"`
	BehaviorsChanged  bool `json:"behaviorsChanged,omitempty"`
}

// Summary is the layout-aware change classification (diff.py's
// "layout_changes").
type Summary struct {
	Layers         LayerChanges      `json:"layers"`
	LayerNames     LayerNameChanges  `json:"layerNames"`
	HoldTaps       BehaviorChanges   `json:"holdTaps"`
	Combos         BehaviorChanges   `json:"combos"`
	Macros         BehaviorChanges   `json:"macros"`
	InputListeners BehaviorChanges   `json:"inputListeners"`
	CustomCode     CustomCodeChanges `json:"customCode"`
}

func analyzeLayoutChanges(base, modified *model.LayoutDocument) Summary {
	s := Summary{}

	if len(modified.Layers) > len(base.Layers) {
		for i := len(base.Layers); i < len(modified.Layers); i++ {
			s.Layers.Added = append(s.Layers.Added, i)
		}
	} else if len(modified.Layers) < len(base.Layers) {
		for i := len(modified.Layers); i < len(base.Layers); i++ {
			s.Layers.Removed = append(s.Layers.Removed, i)
		}
	}
	n := len(base.Layers)
	if len(modified.Layers) < n {
		n = len(modified.Layers)
	}
	for i := 0; i < n; i++ {
		if !bindingSliceEqual(base.Layers[i], modified.Layers[i]) {
			s.Layers.Modified = append(s.Layers.Modified, i)
		}
	}

	nn := len(base.LayerNames)
	if len(modified.LayerNames) < nn {
		nn = len(modified.LayerNames)
	}
	for i := 0; i < nn; i++ {
		if base.LayerNames[i] != modified.LayerNames[i] {
			s.LayerNames.Renamed = append(s.LayerNames.Renamed, RenamedLayer{Index: i, From: base.LayerNames[i], To: modified.LayerNames[i]})
		}
	}
	if sameNameSet(base.LayerNames, modified.LayerNames) && !stringSliceEqual(base.LayerNames, modified.LayerNames) {
		s.Layers.Reordered = true
		s.LayerNames.OrderChanged = true
	}

	s.HoldTaps = diffHoldTaps(base.HoldTaps, modified.HoldTaps)
	s.Combos = diffCombos(base.Combos, modified.Combos)
	s.Macros = diffMacros(base.Macros, modified.Macros)
	s.InputListeners = diffInputListeners(base.InputListeners, modified.InputListeners)

	s.CustomCode.DevicetreeChanged = base.CustomDevicetree != modified.CustomDevicetree
	s.CustomCode.BehaviorsChanged = base.CustomDefinedBehaviors != modified.CustomDefinedBehaviors

	return s
}

func diffHoldTaps(base, modified []model.HoldTap) BehaviorChanges {
	baseByName := make(map[string]model.HoldTap, len(base))
	for _, h := range base {
		baseByName[h.Name] = h
	}
	modByName := make(map[string]model.HoldTap, len(modified))
	for _, h := range modified {
		modByName[h.Name] = h
	}
	c := BehaviorChanges{}
	for name := range modByName {
		if _, ok := baseByName[name]; !ok {
			c.Added = append(c.Added, name)
		}
	}
	for name := range baseByName {
		if _, ok := modByName[name]; !ok {
			c.Removed = append(c.Removed, name)
		}
	}
	for name, bh := range baseByName {
		if mh, ok := modByName[name]; ok && !holdTapsEqual(bh, mh) {
			c.Modified = append(c.Modified, name)
		}
	}
	return c
}

func holdTapsEqual(a, b model.HoldTap) bool {
	return a.Name == b.Name && a.Description == b.Description && a.TappingTermMs == b.TappingTermMs &&
		a.QuickTapMs == b.QuickTapMs && a.Flavor == b.Flavor && a.HoldTrigger == b.HoldTrigger &&
		a.RetroTap == b.RetroTap && stringSliceEqual(a.Bindings, b.Bindings)
}

func diffCombos(base, modified []model.Combo) BehaviorChanges {
	baseByName := make(map[string]model.Combo, len(base))
	for _, c := range base {
		baseByName[c.Name] = c
	}
	modByName := make(map[string]model.Combo, len(modified))
	for _, c := range modified {
		modByName[c.Name] = c
	}
	out := BehaviorChanges{}
	for name := range modByName {
		if _, ok := baseByName[name]; !ok {
			out.Added = append(out.Added, name)
		}
	}
	for name := range baseByName {
		if _, ok := modByName[name]; !ok {
			out.Removed = append(out.Removed, name)
		}
	}
	for name, bc := range baseByName {
		if mc, ok := modByName[name]; ok && !combosEqual(bc, mc) {
			out.Modified = append(out.Modified, name)
		}
	}
	return out
}

func diffMacros(base, modified []model.Macro) BehaviorChanges {
	baseByName := make(map[string]model.Macro, len(base))
	for _, m := range base {
		baseByName[m.Name] = m
	}
	modByName := make(map[string]model.Macro, len(modified))
	for _, m := range modified {
		modByName[m.Name] = m
	}
	out := BehaviorChanges{}
	for name := range modByName {
		if _, ok := baseByName[name]; !ok {
			out.Added = append(out.Added, name)
		}
	}
	for name := range baseByName {
		if _, ok := modByName[name]; !ok {
			out.Removed = append(out.Removed, name)
		}
	}
	for name, bm := range baseByName {
		if mm, ok := modByName[name]; ok && !macrosEqual(bm, mm) {
			out.Modified = append(out.Modified, name)
		}
	}
	return out
}

func diffInputListeners(base, modified []model.InputListener) BehaviorChanges {
	baseByName := make(map[string]model.InputListener, len(base))
	for _, l := range base {
		baseByName[l.Name] = l
	}
	modByName := make(map[string]model.InputListener, len(modified))
	for _, l := range modified {
		modByName[l.Name] = l
	}
	out := BehaviorChanges{}
	for name := range modByName {
		if _, ok := baseByName[name]; !ok {
			out.Added = append(out.Added, name)
		}
	}
	for name := range baseByName {
		if _, ok := modByName[name]; !ok {
			out.Removed = append(out.Removed, name)
		}
	}
	for name, bl := range baseByName {
		if ml, ok := modByName[name]; ok && !listenersEqual(bl, ml) {
			out.Modified = append(out.Modified, name)
		}
	}
	return out
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, n := range a {
		set[n]++
	}
	for _, n := range b {
		set[n]--
	}
	for _, v := range set {
		if v != 0 {
			return false
		}
	}
	return true
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func bindingSliceEqual(a, b []model.Binding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bindingEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func bindingEqual(a, b model.Binding) bool {
	if a.Value != b.Value || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !bindingEqual(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

func combosEqual(a, b model.Combo) bool {
	return a.Name == b.Name && a.Description == b.Description && a.TimeoutMs == b.TimeoutMs &&
		intSliceEqual(a.KeyPositions, b.KeyPositions) && bindingEqual(a.Binding, b.Binding) && stringSliceEqual(a.Layers, b.Layers)
}

func macrosEqual(a, b model.Macro) bool {
	if a.Name != b.Name || a.WaitMs != b.WaitMs || a.TapMs != b.TapMs || len(a.Bindings) != len(b.Bindings) {
		return false
	}
	for i := range a.Bindings {
		if !bindingEqual(a.Bindings[i], b.Bindings[i]) {
			return false
		}
	}
	return true
}

func listenersEqual(a, b model.InputListener) bool {
	if a.Name != b.Name || len(a.Nodes) != len(b.Nodes) {
		return false
	}
	for i := range a.Nodes {
		if a.Nodes[i].Code != b.Nodes[i].Code || !stringSliceEqual(a.Nodes[i].Processors, b.Nodes[i].Processors) {
			return false
		}
	}
	return true
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
