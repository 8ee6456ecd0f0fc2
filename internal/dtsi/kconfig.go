package dtsi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/profile"
)

// featureToggles maps a profile feature predicate to the Kconfig option it
// implies when not already set explicitly (spec §4.3: "per-feature toggles
// derived from profile predicates (CONFIG_ZMK_DISPLAY when has_oled, etc.)").
var featureToggles = []struct {
	option  string
	enabled func(*profile.Profile) bool
}{
	{"CONFIG_ZMK_DISPLAY", (*profile.Profile).HasOLED},
	{"CONFIG_ZMK_RGB_UNDERGLOW", (*profile.Profile).HasRGB},
	{"CONFIG_ZMK_SPLIT", (*profile.Profile).IsSplit},
	{"CONFIG_ZMK_POINTING", (*profile.Profile).HasEncoder},
}

// Kconfig renders the `.conf` fragment: keyboard-level options, firmware
// overrides (both already flattened into p.KconfigOptions, firmware
// winning), feature toggles derived from profile predicates, then
// caller-supplied overrides, stable-sorted by option name (spec §4.3).
func Kconfig(p *profile.Profile, userOverrides map[string]interface{}) string {
	options := make(map[string]model.KconfigOption, len(p.KconfigOptions))
	for k, v := range p.KconfigOptions {
		options[k] = v
	}

	if _, exists := options["CONFIG_ZMK_KEYBOARD_NAME"]; !exists {
		options["CONFIG_ZMK_KEYBOARD_NAME"] = model.KconfigOption{Type: "string", Default: titleCase(p.Keyboard.Keyboard)}
	}

	for _, t := range featureToggles {
		if _, exists := options[t.option]; exists {
			continue
		}
		options[t.option] = model.KconfigOption{Type: "bool", Default: t.enabled(p)}
	}

	for name, value := range userOverrides {
		if existing, ok := options[name]; ok {
			existing.Default = value
			options[name] = existing
			continue
		}
		options[name] = model.KconfigOption{Type: inferKconfigType(value), Default: value}
	}

	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(renderKconfigLine(name, options[name]))
		b.WriteString("\n")
	}
	return b.String()
}

func renderKconfigLine(name string, opt model.KconfigOption) string {
	switch opt.Type {
	case "bool":
		if kconfigTruthy(opt.Default) {
			return name + "=y"
		}
		return name + "=n"
	case "int":
		return fmt.Sprintf("%s=%v", name, opt.Default)
	default:
		return fmt.Sprintf("%s=%q", name, fmt.Sprint(opt.Default))
	}
}

func kconfigTruthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "y"
	default:
		return false
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

func inferKconfigType(v interface{}) string {
	switch v.(type) {
	case bool:
		return "bool"
	case int, int64, float64:
		return "int"
	default:
		return "string"
	}
}
