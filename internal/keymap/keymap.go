// Package keymap parses a ZMK `.keymap` devicetree file back into a
// model.LayoutDocument (spec §4.4), the inverse of internal/dtsi. Two axes
// select behavior: Mode (full file vs. template-anchored extraction) and
// Backend (structural AST vs. legacy regex). New code — no teacher analog
// for devicetree parsing exists in the retrieval pack — grounded directly
// in spec §4.4 and the wire shapes internal/dtsi produces.
package keymap

import (
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Mode selects how the source is scoped before structural extraction.
type Mode int

const (
	ModeAuto Mode = iota
	ModeFull
	ModeTemplate
)

// Backend selects the structural engine used to extract devicetree blocks.
type Backend int

const (
	BackendAST Backend = iota
	BackendRegex
)

// Diagnostic is a per-location parse note (spec §4.4 "Error handling").
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// Options controls Parse.
type Options struct {
	Mode    Mode
	Backend Backend
	Profile *profile.Profile // required for ModeTemplate, and consulted by ModeAuto
}

// Parse turns .keymap source text into a layout document plus any
// diagnostics gathered along the way. The operation fails outright when
// template mode has no profile or no keymap_node region to anchor on, or
// when the resulting document would violate the invariants of §3;
// individual unresolved regions are reported as diagnostics instead.
func Parse(source string, opts Options) (*model.LayoutDocument, []Diagnostic, error) {
	mode := opts.Mode
	if mode == ModeAuto {
		if opts.Profile != nil && opts.Profile.Keyboard.Keymap.TemplateText != "" {
			mode = ModeTemplate
		} else {
			mode = ModeFull
		}
	}

	backend := newBackend(opts.Backend)

	var doc *model.LayoutDocument
	var diags []Diagnostic
	var err error

	switch mode {
	case ModeTemplate:
		if opts.Profile == nil {
			return nil, nil, xerrors.ErrLayoutInvalid.WithMessage("template mode requires a profile")
		}
		doc, diags, err = parseTemplate(source, opts.Profile, backend)
	default:
		doc, diags, err = parseFull(source, backend)
	}
	if err != nil {
		return nil, diags, err
	}

	if opts.Profile != nil {
		doc.Keyboard = opts.Profile.Keyboard.Keyboard
	}
	if verr := doc.Validate(); verr != nil {
		return nil, diags, xerrors.ErrLayoutInvalid.WithCause(verr).WithMessage("parsed document fails validation")
	}
	return doc, diags, nil
}

func newBackend(b Backend) structuralBackend {
	if b == BackendRegex {
		return regexBackend{}
	}
	return astBackend{}
}

func parseFull(source string, backend structuralBackend) (*model.LayoutDocument, []Diagnostic, error) {
	var diags []Diagnostic

	keymapBody, ok := findNamedBlock(source, "keymap")
	layerNames := []string{}
	var layers [][]model.Binding
	if ok {
		var d []Diagnostic
		layerNames, layers, d = backend.parseKeymapNode(keymapBody)
		diags = append(diags, d...)
	} else {
		diags = append(diags, Diagnostic{Message: "no keymap node found"})
	}

	holdTaps, d := backend.parseHoldTaps(findBlockOrEmpty(source, "behaviors"))
	diags = append(diags, d...)

	combos, d := backend.parseCombos(findBlockOrEmpty(source, "combos"), layerNames)
	diags = append(diags, d...)

	macros, d := backend.parseMacros(findBlockOrEmpty(source, "macros"))
	diags = append(diags, d...)

	listeners, d := backend.parseInputListeners(source)
	diags = append(diags, d...)

	doc := &model.LayoutDocument{
		LayerNames:     layerNames,
		Layers:         layers,
		HoldTaps:       holdTaps,
		Combos:         combos,
		Macros:         macros,
		InputListeners: listeners,
	}
	return doc, diags, nil
}

func findBlockOrEmpty(source, name string) string {
	body, ok := findNamedBlock(source, name)
	if !ok {
		return ""
	}
	return body
}
