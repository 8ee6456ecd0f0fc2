// Package model defines the strongly-typed layout document, keyboard and
// firmware descriptors, build matrix, and result records shared by every
// other glovebox package (spec §3, component A).
package model

import "fmt"

// HoldTap is a behavior producing one action on tap and another on hold.
type HoldTap struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	TappingTermMs string   `json:"tappingTermMs,omitempty"` // may hold a ${var} reference
	QuickTapMs    string   `json:"quickTapMs,omitempty"`
	Flavor        string   `json:"flavor,omitempty"`
	Bindings      []string `json:"bindings,omitempty"`
	HoldTrigger   string   `json:"holdTriggerKeyPositions,omitempty"`
	RetroTap      bool     `json:"retroTap,omitempty"`
}

// Combo is an action triggered by a set of key positions pressed together.
type Combo struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	KeyPositions []int    `json:"keyPositions"`
	Binding      Binding  `json:"binding"`
	Layers       []string `json:"layers,omitempty"` // layer names this combo is active on; empty = all
	TimeoutMs    string   `json:"timeoutMs,omitempty"`
}

// Macro is a named sequence of bindings played back on activation.
type Macro struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Bindings    []Binding `json:"bindings"`
	WaitMs      string    `json:"waitMs,omitempty"`
	TapMs       string    `json:"tapMs,omitempty"`
}

// InputListenerNode is one processor entry under an input listener.
type InputListenerNode struct {
	Code       string   `json:"code,omitempty"`
	Processors []string `json:"processors,omitempty"`
}

// InputListener configures processing for a pointing/rotary input device.
type InputListener struct {
	Name  string              `json:"name"`
	Nodes []InputListenerNode `json:"nodes,omitempty"`
}

// Behavior is a free-form system behavior override (e.g. `&kp`, `&sk`)
// carried through from the layout document to the DTSI generator's
// system_behaviors_dts context key.
type Behavior struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// LayoutDocument is the single source of truth a user edits (spec §3).
type LayoutDocument struct {
	Keyboard   string     `json:"keyboard"`
	Title      string     `json:"title,omitempty"`
	LayerNames []string   `json:"layerNames"`
	Layers     [][]Binding `json:"layers"`

	Variables map[string]Value `json:"variables,omitempty"`

	HoldTaps       []HoldTap       `json:"holdTaps,omitempty"`
	Combos         []Combo         `json:"combos,omitempty"`
	Macros         []Macro         `json:"macros,omitempty"`
	InputListeners []InputListener `json:"inputListeners,omitempty"`
	Behaviors      []Behavior      `json:"behaviors,omitempty"`

	CustomDefinedBehaviors string `json:"customDefinedBehaviors,omitempty"`
	CustomDevicetree       string `json:"customDevicetree,omitempty"`

	Version    string `json:"version,omitempty"`
	UUID       string `json:"uuid,omitempty"`
	ParentUUID string `json:"parentUuid,omitempty"`
	BaseVersion string `json:"baseVersion,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Validate checks the structural invariants named in spec §3.
func (l *LayoutDocument) Validate() error {
	if len(l.LayerNames) != len(l.Layers) {
		return errLayoutf("layer_names has %d entries but layers has %d", len(l.LayerNames), len(l.Layers))
	}
	for i, layer := range l.Layers {
		if len(layer) == 0 {
			return errLayoutf("layer %q (index %d) has no bindings", layerName(l.LayerNames, i), i)
		}
		for j, b := range layer {
			if err := b.ValidateDepth(); err != nil {
				return errLayoutf("layer %q binding %d: %v", layerName(l.LayerNames, i), j, err)
			}
		}
	}
	for _, c := range l.Combos {
		for _, pos := range c.KeyPositions {
			if pos < 0 {
				return errLayoutf("combo %q has negative key position %d", c.Name, pos)
			}
		}
	}
	return nil
}

// CombosExceedingKeyCount returns combos referencing a key position beyond
// keyCount. Per spec §3 this is a warning, never a validation error, since
// keyboards may have combo-only virtual positions.
func (l *LayoutDocument) CombosExceedingKeyCount(keyCount int) []string {
	var names []string
	for _, c := range l.Combos {
		for _, pos := range c.KeyPositions {
			if pos >= keyCount {
				names = append(names, c.Name)
				break
			}
		}
	}
	return names
}

func layerName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("#%d", i)
}

// LayerIndex returns the index of the named layer, or -1 if not found.
func (l *LayoutDocument) LayerIndex(name string) int {
	for i, n := range l.LayerNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the document.
func (l *LayoutDocument) Clone() *LayoutDocument {
	n := *l
	n.LayerNames = append([]string(nil), l.LayerNames...)
	n.Layers = make([][]Binding, len(l.Layers))
	for i, layer := range l.Layers {
		n.Layers[i] = append([]Binding(nil), layer...)
	}
	if l.Variables != nil {
		n.Variables = make(map[string]Value, len(l.Variables))
		for k, v := range l.Variables {
			n.Variables[k] = v
		}
	}
	n.HoldTaps = append([]HoldTap(nil), l.HoldTaps...)
	n.Combos = append([]Combo(nil), l.Combos...)
	n.Macros = append([]Macro(nil), l.Macros...)
	n.InputListeners = append([]InputListener(nil), l.InputListeners...)
	n.Behaviors = append([]Behavior(nil), l.Behaviors...)
	return &n
}
