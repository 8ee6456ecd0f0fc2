//go:build linux

package flash

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caddyglow/glovebox/internal/model"
	"github.com/caddyglow/glovebox/internal/xerrors"
)

const (
	defaultSysUSBDevices = "/sys/bus/usb/devices"
	defaultProcMounts    = "/proc/mounts"
)

// LinuxAdapter enumerates USB mass-storage bootloader devices via sysfs
// and flashes firmware by copying the UF2 file onto the device's mounted
// filesystem (spec §4.10).
type LinuxAdapter struct {
	sysUSBDevices string
	procMounts    string
}

// NewLinuxAdapter builds the default Linux Adapter.
func NewLinuxAdapter() *LinuxAdapter {
	return &LinuxAdapter{sysUSBDevices: defaultSysUSBDevices, procMounts: defaultProcMounts}
}

// newLinuxAdapterRootedAt builds a LinuxAdapter reading from arbitrary
// sysfs/procfs roots, for tests.
func newLinuxAdapterRootedAt(sysUSBDevices, procMounts string) *LinuxAdapter {
	return &LinuxAdapter{sysUSBDevices: sysUSBDevices, procMounts: procMounts}
}

// ListDevices walks /sys/bus/usb/devices for devices matching cfg's
// vendor/product IDs (or all devices if none are configured), resolves
// each to its block device node(s), and reports current mount points.
func (a *LinuxAdapter) ListDevices(ctx context.Context, cfg model.FlashConfig) ([]Device, error) {
	var queryRe *regexp.Regexp
	if cfg.QueryPattern != "" {
		re, err := regexp.Compile(cfg.QueryPattern)
		if err != nil {
			return nil, fmt.Errorf("compile query pattern: %w", err)
		}
		queryRe = re
	}

	mounts, err := readMounts(a.procMounts)
	if err != nil {
		return nil, fmt.Errorf("read mounts: %w", err)
	}

	entries, err := os.ReadDir(a.sysUSBDevices)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list usb devices: %w", err)
	}

	var devices []Device
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		devDir := filepath.Join(a.sysUSBDevices, entry.Name())
		vendor := readSysAttr(filepath.Join(devDir, "idVendor"))
		product := readSysAttr(filepath.Join(devDir, "idProduct"))
		if vendor == "" || product == "" {
			continue
		}
		if !idMatches(vendor, cfg.VendorIDs) || !idMatches(product, cfg.ProductIDs) {
			continue
		}

		for _, blockName := range findBlockDevices(devDir) {
			path := "/dev/" + blockName
			if queryRe != nil && !queryRe.MatchString(path) && !queryRe.MatchString(blockName) {
				continue
			}
			devices = append(devices, Device{
				Path:       path,
				MountPoint: mounts[path],
				VendorID:   vendor,
				ProductID:  product,
			})
		}
	}
	return devices, nil
}

// Flash copies firmwarePath onto dev's mounted filesystem.
func (a *LinuxAdapter) Flash(ctx context.Context, dev Device, firmwarePath string) error {
	if dev.MountPoint == "" {
		return xerrors.ErrFlashNoDevice.WithMessagef("device %s is not mounted", dev.Path)
	}

	in, err := os.Open(firmwarePath)
	if err != nil {
		return xerrors.ErrFlashFailed.WithMessagef("open firmware file: %v", err)
	}
	defer in.Close()

	dest := filepath.Join(dev.MountPoint, filepath.Base(firmwarePath))
	out, err := os.Create(dest)
	if err != nil {
		return xerrors.ErrFlashFailed.WithMessagef("create %s: %v", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return xerrors.ErrFlashFailed.WithMessagef("write firmware: %v", err)
	}
	if err := out.Sync(); err != nil {
		return xerrors.ErrFlashFailed.WithMessagef("sync firmware: %v", err)
	}
	return nil
}

func readSysAttr(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// idMatches reports whether id matches one of the configured candidates,
// case-insensitively; an empty candidate list matches everything.
func idMatches(id string, candidates []string) bool {
	if len(candidates) == 0 {
		return true
	}
	for _, c := range candidates {
		if strings.EqualFold(id, c) {
			return true
		}
	}
	return false
}

// findBlockDevices looks for `block/<name>` subdirectories anywhere under
// a USB device's sysfs tree (the standard location for a USB mass-storage
// device's exposed block device).
func findBlockDevices(devDir string) []string {
	var names []string
	_ = filepath.Walk(devDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || !info.IsDir() || info.Name() != "block" {
			return nil
		}
		children, readErr := os.ReadDir(path)
		if readErr == nil {
			for _, c := range children {
				names = append(names, c.Name())
			}
		}
		return nil
	})
	return names
}

func readMounts(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mounts := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		mounts[fields[0]] = fields[1]
	}
	return mounts, scanner.Err()
}
