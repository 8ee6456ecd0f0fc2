package diffpatch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/caddyglow/glovebox/internal/model"
)

// Position locates one binding within a layout (diff.py's
// `_create_binding_signatures` position_info).
type Position struct {
	Layer    int           `json:"layer"`
	Position int           `json:"position"`
	Binding  model.Binding `json:"binding"`
}

// Movement records a binding that moved between positions, either within
// one layer or across layers.
type Movement struct {
	Signature string   `json:"signature"`
	From      Position `json:"from"`
	To        Position `json:"to"`
	Binding   model.Binding `json:"binding"`
}

// BehaviorChange records a position whose binding changed in place.
type BehaviorChange struct {
	Layer    int           `json:"layer"`
	Position int           `json:"position"`
	From     model.Binding `json:"from"`
	To       model.Binding `json:"to"`
}

// Movements is the binding-movement report (diff.py's `_track_binding_movements`).
type Movements struct {
	WithinLayer     []Movement       `json:"withinLayer,omitempty"`
	BetweenLayers   []Movement       `json:"betweenLayers,omitempty"`
	BehaviorChanges []BehaviorChange `json:"behaviorChanges,omitempty"`
}

func bindingSignature(b model.Binding) string {
	raw, _ := json.Marshal(b)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:16]
}

func bindingSignatures(doc *model.LayoutDocument) map[string][]Position {
	sigs := map[string][]Position{}
	for layerIdx, layer := range doc.Layers {
		for posIdx, b := range layer {
			sig := bindingSignature(b)
			sigs[sig] = append(sigs[sig], Position{Layer: layerIdx, Position: posIdx, Binding: b})
		}
	}
	return sigs
}

func trackBindingMovements(base, modified *model.LayoutDocument) Movements {
	var m Movements

	baseSigs := bindingSignatures(base)
	modSigs := bindingSignatures(modified)

	for sig, basePositions := range baseSigs {
		modPositions, ok := modSigs[sig]
		if !ok {
			continue
		}
		for _, bp := range basePositions {
			for _, mp := range modPositions {
				if bp.Layer == mp.Layer && bp.Position == mp.Position {
					continue
				}
				mv := Movement{Signature: sig, From: bp, To: mp, Binding: bp.Binding}
				if bp.Layer == mp.Layer {
					m.WithinLayer = append(m.WithinLayer, mv)
				} else {
					m.BetweenLayers = append(m.BetweenLayers, mv)
				}
			}
		}
	}

	n := len(base.Layers)
	if len(modified.Layers) < n {
		n = len(modified.Layers)
	}
	for layerIdx := 0; layerIdx < n; layerIdx++ {
		baseLayer := base.Layers[layerIdx]
		modLayer := modified.Layers[layerIdx]
		pn := len(baseLayer)
		if len(modLayer) < pn {
			pn = len(modLayer)
		}
		for posIdx := 0; posIdx < pn; posIdx++ {
			if !bindingEqual(baseLayer[posIdx], modLayer[posIdx]) {
				m.BehaviorChanges = append(m.BehaviorChanges, BehaviorChange{
					Layer: layerIdx, Position: posIdx, From: baseLayer[posIdx], To: modLayer[posIdx],
				})
			}
		}
	}

	return m
}
