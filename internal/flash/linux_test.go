//go:build linux

package flash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/caddyglow/glovebox/internal/model"
)

func writeFakeUSBDevice(t *testing.T, sysRoot, name, vendor, product, blockName string) {
	t.Helper()
	devDir := filepath.Join(sysRoot, name)
	blockDir := filepath.Join(devDir, "1-1:1.0", "host0", "target0:0:0", "0:0:0:0", "block")
	if err := os.MkdirAll(blockDir, 0o755); err != nil {
		t.Fatalf("mkdir block dir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(blockDir, blockName), 0o755); err != nil {
		t.Fatalf("mkdir block entry: %v", err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "idVendor"), []byte(vendor+"\n"), 0o644); err != nil {
		t.Fatalf("write idVendor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "idProduct"), []byte(product+"\n"), 0o644); err != nil {
		t.Fatalf("write idProduct: %v", err)
	}
}

func TestListDevicesFiltersByVendorAndProduct(t *testing.T) {
	sysRoot := t.TempDir()
	writeFakeUSBDevice(t, sysRoot, "1-1", "239a", "0029", "sda1")
	writeFakeUSBDevice(t, sysRoot, "1-2", "0483", "df11", "sdb1")

	mountsPath := filepath.Join(t.TempDir(), "mounts")
	if err := os.WriteFile(mountsPath, []byte("/dev/sda1 /media/NICENANO vfat rw 0 0\n"), 0o644); err != nil {
		t.Fatalf("write mounts: %v", err)
	}

	a := newLinuxAdapterRootedAt(sysRoot, mountsPath)
	devices, err := a.ListDevices(context.Background(), model.FlashConfig{VendorIDs: []string{"239A"}})
	if err != nil {
		t.Fatalf("list devices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected one matching device, got %d: %+v", len(devices), devices)
	}
	if devices[0].Path != "/dev/sda1" {
		t.Fatalf("unexpected path: %s", devices[0].Path)
	}
	if devices[0].MountPoint != "/media/NICENANO" {
		t.Fatalf("expected mount point to be resolved, got %q", devices[0].MountPoint)
	}
}

func TestListDevicesEmptyFilterMatchesAll(t *testing.T) {
	sysRoot := t.TempDir()
	writeFakeUSBDevice(t, sysRoot, "1-1", "239a", "0029", "sda1")

	a := newLinuxAdapterRootedAt(sysRoot, filepath.Join(t.TempDir(), "mounts"))
	devices, err := a.ListDevices(context.Background(), model.FlashConfig{})
	if err != nil {
		t.Fatalf("list devices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected a device with no filters configured, got %d", len(devices))
	}
}

func TestFlashCopiesFirmwareToMountPoint(t *testing.T) {
	mountPoint := t.TempDir()
	firmware := filepath.Join(t.TempDir(), "corne.uf2")
	if err := os.WriteFile(firmware, []byte("uf2-bytes"), 0o644); err != nil {
		t.Fatalf("write firmware: %v", err)
	}

	a := NewLinuxAdapter()
	if err := a.Flash(context.Background(), Device{Path: "/dev/sda1", MountPoint: mountPoint}, firmware); err != nil {
		t.Fatalf("flash: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(mountPoint, "corne.uf2"))
	if err != nil {
		t.Fatalf("read flashed firmware: %v", err)
	}
	if string(data) != "uf2-bytes" {
		t.Fatalf("unexpected firmware contents: %q", data)
	}
}

func TestFlashFailsWithoutMountPoint(t *testing.T) {
	a := NewLinuxAdapter()
	if err := a.Flash(context.Background(), Device{Path: "/dev/sda1"}, "/tmp/does-not-matter.uf2"); err == nil {
		t.Fatal("expected an error for an unmounted device")
	}
}
