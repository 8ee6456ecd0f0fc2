//go:build !linux

package flash

import (
	"context"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

// LinuxAdapter is unavailable on this platform; NewLinuxAdapter still
// returns a value so callers don't need build tags of their own, but
// every call fails with ErrFlashNotImplemented (spec §4.10: "the real
// implementation [is] external").
type LinuxAdapter struct{}

// NewLinuxAdapter builds a stub Adapter for non-Linux platforms.
func NewLinuxAdapter() *LinuxAdapter { return &LinuxAdapter{} }

// ListDevices always fails on this platform.
func (a *LinuxAdapter) ListDevices(ctx context.Context, cfg model.FlashConfig) ([]Device, error) {
	return nil, xerrors.ErrFlashNotImplemented
}

// Flash always fails on this platform.
func (a *LinuxAdapter) Flash(ctx context.Context, dev Device, firmwarePath string) error {
	return xerrors.ErrFlashNotImplemented
}
