// Package flash defines the mass-storage device discovery/flash contract
// (spec §4.10). The spec marks the real implementation platform-specific
// and largely external; this package supplies the interface plus a
// minimal Linux default that walks `/sys/bus/usb/devices` for matching USB
// devices and copies the firmware file onto the device's mounted filesystem.
package flash

import (
	"context"

	"github.com/caddyglow/glovebox/internal/model"
)

// Device is one candidate mass-storage device a keyboard's bootloader
// exposes.
type Device struct {
	Path       string // block device node, e.g. /dev/sda1
	ByIDPath   string // /dev/disk/by-id/... symlink; LinuxAdapter leaves it empty
	MountPoint string // empty if not currently mounted
	VendorID   string
	ProductID  string
}

// Adapter lists candidate devices and writes firmware to one of them.
type Adapter interface {
	ListDevices(ctx context.Context, cfg model.FlashConfig) ([]Device, error)
	Flash(ctx context.Context, dev Device, firmwarePath string) error
}
