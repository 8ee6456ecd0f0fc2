package profile

import (
	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// Profile is the resolved pair (keyboard descriptor, firmware id) from
// spec §3 "Resolved profile": flattened kconfig options (keyboard union
// firmware, firmware wins), the system-behaviors catalog, and convenience
// feature predicates. It is a value object shared by value (spec §3
// "Ownership & aliasing") — callers clone cheaply rather than mutate.
type Profile struct {
	Keyboard   *model.KeyboardDescriptor
	FirmwareID string                          // "" for a keyboard-only profile
	Firmware   *model.FirmwareDescriptor        // nil for a keyboard-only profile
	KconfigOptions map[string]model.KconfigOption
	SystemBehaviors []string
}

// IsKeyboardOnly reports whether this profile has no firmware selected —
// valid for display and layout editing, but not for firmware compilation
// (spec §4.1 "Firmware selection").
func (p *Profile) IsKeyboardOnly() bool { return p.Firmware == nil }

func (p *Profile) HasRGB() bool     { return p.Keyboard.HasRGB }
func (p *Profile) HasOLED() bool    { return p.Keyboard.HasOLED }
func (p *Profile) IsSplit() bool    { return p.Keyboard.IsSplit }
func (p *Profile) HasEncoder() bool { return p.Keyboard.HasEncoder }

// Resolve loads the named keyboard and builds a Profile for it, selecting
// firmwareID or (if empty) the alphabetically-first available firmware
// (spec §4.1 "Firmware selection").
func (l *Loader) Resolve(keyboardName, firmwareID string) (*Profile, error) {
	kd, err := l.Load(keyboardName)
	if err != nil {
		return nil, err
	}
	return resolveProfile(kd, firmwareID)
}

func resolveProfile(kd *model.KeyboardDescriptor, firmwareID string) (*Profile, error) {
	p := &Profile{
		Keyboard:        kd,
		KconfigOptions:  cloneKconfig(kd.Keymap.KconfigOptions),
		SystemBehaviors: append([]string(nil), kd.Keymap.SystemBehaviors...),
	}

	if firmwareID == "" {
		if len(kd.Firmwares) == 0 {
			return p, nil // keyboard-only profile
		}
		firmwareID = firstSortedKey(kd.Firmwares)
	}

	fw, ok := kd.Firmwares[firmwareID]
	if !ok {
		return nil, xerrors.ErrFirmwareNotFound.WithMessagef(
			"firmware %q not found for keyboard %q", firmwareID, kd.Keyboard)
	}

	p.FirmwareID = firmwareID
	p.Firmware = &fw
	p.KconfigOptions = mergeKconfig(kd.Keymap.KconfigOptions, fw.Kconfig)
	return p, nil
}

// AvailableFirmwares returns the sorted firmware ids for kd.
func AvailableFirmwares(kd *model.KeyboardDescriptor) []string {
	out := make([]string, 0, len(kd.Firmwares))
	for name := range kd.Firmwares {
		out = append(out, name)
	}
	sortStrings(out)
	return out
}

func firstSortedKey(m map[string]model.FirmwareDescriptor) string {
	var first string
	for k := range m {
		if first == "" || k < first {
			first = k
		}
	}
	return first
}

func cloneKconfig(m map[string]model.KconfigOption) map[string]model.KconfigOption {
	out := make(map[string]model.KconfigOption, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeKconfig unions base and override, with override (the firmware's
// entries) winning on key collision (spec §3: "A firmware descriptor's
// kconfig overrides the keyboard's same-named entries").
func mergeKconfig(base, override map[string]model.KconfigOption) map[string]model.KconfigOption {
	out := cloneKconfig(base)
	for k, v := range override {
		out[k] = v
	}
	return out
}
