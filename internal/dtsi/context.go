package dtsi

import (
	"strings"
	"text/template"
	"time"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Options controls template rendering (spec §4.3 "Determinism": repeated
// runs yield byte-identical output apart from generation_timestamp, which
// callers may disable for reproducible builds).
type Options struct {
	DisableTimestamp bool
	Now              func() time.Time // overridable for deterministic tests; defaults to time.Now
	UserKconfig      map[string]interface{}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// BuildContext assembles the fixed template context named by spec §6:
// keyboard, layer_names, layers, layer_defines, keymap_node,
// user_behaviors_dtsi, combos_dtsi, input_listeners_dtsi,
// user_macros_dtsi, resolved_includes, key_position_header,
// system_behaviors_dts, custom_defined_behaviors, custom_devicetree,
// profile_name, firmware_version, generation_timestamp.
func BuildContext(p *profile.Profile, doc *model.LayoutDocument, opts Options) map[string]interface{} {
	rules := p.Keyboard.Keymap.Formatting

	ctx := map[string]interface{}{
		"keyboard":                 doc.Keyboard,
		"layer_names":              doc.LayerNames,
		"layers":                   doc.Layers,
		"layer_defines":            LayerDefines(doc),
		"keymap_node":              KeymapNode(doc, rules),
		"user_behaviors_dtsi":      HoldTapsNode(doc.HoldTaps),
		"combos_dtsi":              CombosNode(doc),
		"input_listeners_dtsi":     InputListenersNode(doc.InputListeners),
		"user_macros_dtsi":         MacrosNode(doc.Macros),
		"resolved_includes":        resolvedIncludes(p.Keyboard.Keymap.Includes),
		"key_position_header":      keyPositionHeader(p.Keyboard.Keymap.KeyPositionGrid),
		"system_behaviors_dts":     systemBehaviorsDTS(doc.Behaviors),
		"custom_defined_behaviors": doc.CustomDefinedBehaviors,
		"custom_devicetree":        doc.CustomDevicetree,
		"profile_name":             profileName(p),
		"firmware_version":         firmwareVersion(p),
	}
	if !opts.DisableTimestamp {
		ctx["generation_timestamp"] = opts.now().UTC().Format(time.RFC3339)
	} else {
		ctx["generation_timestamp"] = ""
	}
	return ctx
}

func resolvedIncludes(includes []string) string {
	var b strings.Builder
	for _, inc := range includes {
		b.WriteString("#include <")
		b.WriteString(inc)
		b.WriteString(">\n")
	}
	return b.String()
}

func keyPositionHeader(grid [][]int) string {
	var b strings.Builder
	pos := 0
	for _, row := range grid {
		for range row {
			b.WriteString("#define POS_")
			b.WriteString(itoaSimple(pos))
			b.WriteString(" ")
			b.WriteString(itoaSimple(pos))
			b.WriteString("\n")
			pos++
		}
	}
	return b.String()
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func systemBehaviorsDTS(behaviors []model.Behavior) string {
	var b strings.Builder
	for _, bh := range behaviors {
		b.WriteString(bh.Definition)
		b.WriteString("\n")
	}
	return b.String()
}

func profileName(p *profile.Profile) string {
	if p.FirmwareID == "" {
		return p.Keyboard.Keyboard
	}
	return p.Keyboard.Keyboard + "/" + p.FirmwareID
}

func firmwareVersion(p *profile.Profile) string {
	if p.Firmware == nil {
		return ""
	}
	return p.Firmware.Version
}

// Render fills the keyboard's template text with the context from
// BuildContext (spec §4.3 "Template rendering"). The template adapter is
// Go's own text/template, standing in for the Jinja-like engine named at
// the spec's boundary (out of scope to pick a specific third-party
// templating library; text/template is stdlib and exactly matches the
// "fill a context, render with a templating adapter" shape the spec
// describes without introducing a dependency the rest of the pack never
// uses for templating).
func Render(p *profile.Profile, doc *model.LayoutDocument, opts Options) (string, error) {
	ctx := BuildContext(p, doc, opts)
	tmpl, err := template.New("keymap").Parse(p.Keyboard.Keymap.TemplateText)
	if err != nil {
		return "", xerrors.ErrTemplateRenderFailed.WithCause(err).WithMessage("parsing keyboard template text")
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", xerrors.ErrTemplateRenderFailed.WithCause(err).WithMessage("executing keyboard template")
	}
	return b.String(), nil
}
