//go:build linux

package linux

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/ch341/pkg"
	"github.com/ardnew/ch341/usb"
)

// =============================================================================
// Device Enumeration
// =============================================================================

// Enumerate scans sysfs for USB devices and returns a snapshot per device,
// sorted by bus then address. Devices whose attributes cannot be read
// (typically mid-disconnect) are skipped.
//
// Scanning reads only sysfs attribute files, so it needs no permission on
// the device nodes and never touches a bound kernel driver.
func Enumerate() ([]*usb.Device, error) {
	return enumeratePath(SysfsUSBPath)
}

// enumeratePath scans the given sysfs devices directory.
func enumeratePath(root string) ([]*usb.Device, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		devices []*usb.Device
	)

	var group errgroup.Group
	group.SetLimit(8)

	for _, entry := range entries {
		name := entry.Name()

		// USB devices have names like "1-1", "1-1.2", etc.
		// Skip root hub entries (usb1, usb2) and interface
		// entries (1-1:1.0).
		if strings.HasPrefix(name, "usb") {
			continue
		}
		if strings.Contains(name, ":") {
			continue
		}

		devPath := filepath.Join(root, name)
		group.Go(func() error {
			dev, err := parseDevice(devPath)
			if err != nil {
				pkg.LogDebug(pkg.ComponentSysfs, "skipping device",
					"path", devPath,
					"error", err)
				return nil // Skip devices we can't parse
			}
			mu.Lock()
			devices = append(devices, dev)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Bus != devices[j].Bus {
			return devices[i].Bus < devices[j].Bus
		}
		return devices[i].Address < devices[j].Address
	})

	return devices, nil
}

// FindByID returns all devices matching the given vendor and product ID.
func FindByID(vid, pid uint16) ([]*usb.Device, error) {
	devices, err := Enumerate()
	if err != nil {
		return nil, err
	}

	var matches []*usb.Device
	for _, dev := range devices {
		if dev.Descriptor.VendorID == vid && dev.Descriptor.ProductID == pid {
			matches = append(matches, dev)
		}
	}
	return matches, nil
}

// parseDevice builds a device snapshot from one sysfs device directory.
func parseDevice(sysfsPath string) (*usb.Device, error) {
	dev := &usb.Device{SysfsPath: sysfsPath}

	busNum, err := readSysfsUint8(filepath.Join(sysfsPath, "busnum"))
	if err != nil {
		return nil, err
	}
	dev.Bus = busNum

	devNum, err := readSysfsUint8(filepath.Join(sysfsPath, "devnum"))
	if err != nil {
		return nil, err
	}
	dev.Address = devNum

	if s, err := readSysfsString(filepath.Join(sysfsPath, "speed")); err == nil {
		dev.Speed = usb.ParseSpeed(s)
	}

	// The kernel exposes the raw device descriptor followed by every
	// configuration blob in the descriptors attribute.
	blob, err := readSysfsBlob(filepath.Join(sysfsPath, "descriptors"))
	if err != nil {
		return nil, err
	}
	if err := usb.ParseDeviceTree(blob, dev); err != nil {
		return nil, err
	}

	// String descriptors are cached by the kernel for these three.
	if s, err := readSysfsString(filepath.Join(sysfsPath, "manufacturer")); err == nil {
		dev.Manufacturer = s
	}
	if s, err := readSysfsString(filepath.Join(sysfsPath, "product")); err == nil {
		dev.Product = s
	}
	if s, err := readSysfsString(filepath.Join(sysfsPath, "serial")); err == nil {
		dev.SerialNumber = s
	}

	return dev, nil
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsUint8 reads an unsigned decimal uint8 from a sysfs attribute file.
func readSysfsUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// readSysfsBlob reads a bounded binary attribute file.
func readSysfsBlob(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, MaxDescriptorBlobSize)
	n := 0
	for n < len(buf) {
		r, err := f.Read(buf[n:])
		n += r
		if err != nil {
			break
		}
	}
	if n == 0 {
		return nil, pkg.ErrDescriptorTooShort
	}
	return buf[:n], nil
}
