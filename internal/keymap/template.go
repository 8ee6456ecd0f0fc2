package keymap

import (
	"regexp"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

var templateAction = regexp.MustCompile(`\{\{-?\s*\.?(\w+)\s*-?\}\}`)

type templateSegment struct {
	literal string // literal text preceding this segment's key
	key     string // context key whose rendered value follows the literal; "" for the trailing segment
}

// splitTemplate decomposes a keyboard's template text into alternating
// literal/key segments, mirroring the context keys named in spec §6.
func splitTemplate(tpl string) []templateSegment {
	locs := templateAction.FindAllStringSubmatchIndex(tpl, -1)
	var segs []templateSegment
	cursor := 0
	for _, loc := range locs {
		literal := tpl[cursor:loc[0]]
		key := tpl[loc[2]:loc[3]]
		segs = append(segs, templateSegment{literal: literal, key: key})
		cursor = loc[1]
	}
	segs = append(segs, templateSegment{literal: tpl[cursor:]})
	return segs
}

// parseTemplate anchors source against the keyboard's template text
// (spec §4.4 "template" mode), extracting only the regions a templating
// adapter would have filled, and preserving the custom_devicetree and
// custom_defined_behaviors regions verbatim rather than reparsing them.
func parseTemplate(source string, p *profile.Profile, backend structuralBackend) (*model.LayoutDocument, []Diagnostic, error) {
	segs := splitTemplate(p.Keyboard.Keymap.TemplateText)

	captured := map[string]string{}
	var diags []Diagnostic
	cursor := 0
	for i, seg := range segs {
		if seg.literal != "" {
			idx := strings.Index(source[cursor:], seg.literal)
			if idx < 0 {
				diags = append(diags, Diagnostic{Message: "template literal not found in source: " + truncate(seg.literal)})
				break
			}
			cursor += idx + len(seg.literal)
		}
		if i == len(segs)-1 {
			break
		}
		key := segs[i].key
		nextLiteral := ""
		if i+1 < len(segs) {
			nextLiteral = segs[i+1].literal
		}
		end := len(source)
		if nextLiteral != "" {
			idx := strings.Index(source[cursor:], nextLiteral)
			if idx < 0 {
				diags = append(diags, Diagnostic{Message: "could not bound template key " + key + " in source"})
				continue
			}
			end = cursor + idx
		}
		captured[key] = source[cursor:end]
		cursor = end
	}

	doc := &model.LayoutDocument{}
	var layerNames []string

	if text, ok := captured["keymap_node"]; ok {
		var d []Diagnostic
		layerNames, doc.Layers, d = backend.parseKeymapNode(text)
		doc.LayerNames = layerNames
		diags = append(diags, d...)
	}
	if text, ok := captured["user_behaviors_dtsi"]; ok {
		holdTaps, d := backend.parseHoldTaps(text)
		doc.HoldTaps = holdTaps
		diags = append(diags, d...)
	}
	if text, ok := captured["combos_dtsi"]; ok {
		combos, d := backend.parseCombos(text, layerNames)
		doc.Combos = combos
		diags = append(diags, d...)
	}
	if text, ok := captured["user_macros_dtsi"]; ok {
		macros, d := backend.parseMacros(text)
		doc.Macros = macros
		diags = append(diags, d...)
	}
	if text, ok := captured["input_listeners_dtsi"]; ok {
		listeners, d := backend.parseInputListeners(text)
		doc.InputListeners = listeners
		diags = append(diags, d...)
	}
	if text, ok := captured["custom_defined_behaviors"]; ok {
		doc.CustomDefinedBehaviors = strings.TrimSpace(text)
	}
	if text, ok := captured["custom_devicetree"]; ok {
		doc.CustomDevicetree = strings.TrimSpace(text)
	}

	if doc.LayerNames == nil {
		return nil, diags, xerrors.ErrLayoutInvalid.WithMessage("template has no keymap_node region to anchor layer extraction")
	}
	return doc, diags, nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
