package variables

import "github.com/caddyglow/glovebox/internal/model"

// Flatten resolves every `${...}` reference reachable from doc and returns
// a new document with doc.Variables cleared, matching the compiled/flatten
// mode of spec §4.2 ("to_flattened_document"). The input document is left
// untouched; edit-mode callers keep working with the original, reference-
// bearing document.
func Flatten(doc *model.LayoutDocument) (*model.LayoutDocument, error) {
	out := doc.Clone()
	r := New(doc.Variables)

	for i := range out.Layers {
		for j := range out.Layers[i] {
			resolved, err := resolveBinding(r, out.Layers[i][j])
			if err != nil {
				return nil, err
			}
			out.Layers[i][j] = resolved
		}
	}

	for i := range out.HoldTaps {
		ht := &out.HoldTaps[i]
		var err error
		if ht.TappingTermMs, err = resolveStr(r, ht.TappingTermMs); err != nil {
			return nil, err
		}
		if ht.QuickTapMs, err = resolveStr(r, ht.QuickTapMs); err != nil {
			return nil, err
		}
		if ht.Flavor, err = resolveStr(r, ht.Flavor); err != nil {
			return nil, err
		}
		if ht.HoldTrigger, err = resolveStr(r, ht.HoldTrigger); err != nil {
			return nil, err
		}
	}

	for i := range out.Combos {
		c := &out.Combos[i]
		var err error
		if c.TimeoutMs, err = resolveStr(r, c.TimeoutMs); err != nil {
			return nil, err
		}
		if c.Binding, err = resolveBinding(r, c.Binding); err != nil {
			return nil, err
		}
	}

	for i := range out.Macros {
		m := &out.Macros[i]
		var err error
		if m.WaitMs, err = resolveStr(r, m.WaitMs); err != nil {
			return nil, err
		}
		if m.TapMs, err = resolveStr(r, m.TapMs); err != nil {
			return nil, err
		}
		for j := range m.Bindings {
			if m.Bindings[j], err = resolveBinding(r, m.Bindings[j]); err != nil {
				return nil, err
			}
		}
	}

	for i := range out.Behaviors {
		resolved, err := resolveStr(r, out.Behaviors[i].Definition)
		if err != nil {
			return nil, err
		}
		out.Behaviors[i].Definition = resolved
	}

	var err error
	if out.CustomDefinedBehaviors, err = resolveStr(r, out.CustomDefinedBehaviors); err != nil {
		return nil, err
	}
	if out.CustomDevicetree, err = resolveStr(r, out.CustomDevicetree); err != nil {
		return nil, err
	}

	out.Variables = nil
	return out, nil
}

func resolveStr(r *Resolver, raw string) (string, error) {
	if raw == "" || !HasReference(raw) {
		return raw, nil
	}
	v, err := r.Resolve(raw)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func resolveBinding(r *Resolver, b model.Binding) (model.Binding, error) {
	value, err := resolveStr(r, b.Value)
	if err != nil {
		return model.Binding{}, err
	}
	out := model.Binding{Value: value}
	if len(b.Params) > 0 {
		out.Params = make([]model.Binding, len(b.Params))
		for i, p := range b.Params {
			resolved, err := resolveBinding(r, p)
			if err != nil {
				return model.Binding{}, err
			}
			out.Params[i] = resolved
		}
	}
	return out, nil
}
