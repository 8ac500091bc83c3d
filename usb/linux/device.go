//go:build linux

package linux

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardnew/ch341/pkg"
	"github.com/ardnew/ch341/usb"
)

// Handle is an open usbfs connection to one USB device.
//
// A Handle is safe for concurrent use; transfers on distinct endpoints
// proceed independently in the kernel, and handle state is mutex-guarded.
type Handle struct {
	fd     int
	device *usb.Device

	// Claimed interfaces, and which of them had a kernel driver detached
	// that should be reattached on Close.
	claimedMask  uint32
	detachedMask uint32
	claimMu      sync.Mutex

	// Transfer timeout in milliseconds when the context has no deadline.
	transferTimeout uint32

	closed bool
	mu     sync.RWMutex
}

// Open opens the device node backing the given snapshot.
func Open(dev *usb.Device) (*Handle, error) {
	path := devfsPath(dev.Bus, dev.Address)
	fd, err := openDevice(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, mapErrno(err))
	}

	caps, _ := getCapabilities(fd)
	pkg.LogDebug(pkg.ComponentUsbfs, "device opened",
		"path", path,
		"id", dev.ID(),
		"capabilities", fmt.Sprintf("0x%x", caps))

	// Sysfs snapshots normally carry the speed; backfill from the
	// connect info ioctl when they don't. The ioctl only distinguishes
	// low speed from the rest.
	if dev.Speed == usb.SpeedUnknown {
		if info, err := getConnectInfo(fd); err == nil {
			if info.slow != 0 {
				dev.Speed = usb.SpeedLow
			} else {
				dev.Speed = usb.SpeedFull
			}
		}
	}

	return &Handle{
		fd:              fd,
		device:          dev,
		transferTimeout: DefaultTransferTimeout,
	}, nil
}

// Device returns the descriptor snapshot this handle was opened from.
func (h *Handle) Device() *usb.Device {
	return h.device
}

// SetTransferTimeout sets the timeout applied to transfers whose context
// carries no deadline.
func (h *Handle) SetTransferTimeout(ms uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transferTimeout = ms
}

// Close releases all claimed interfaces, reattaches detached kernel
// drivers, and closes the device node.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.claimMu.Lock()
	for i := uint8(0); i < 32; i++ {
		mask := uint32(1) << i
		if h.claimedMask&mask != 0 {
			releaseInterface(h.fd, i)
		}
		if h.detachedMask&mask != 0 {
			attachDriver(h.fd, i)
		}
	}
	h.claimedMask = 0
	h.detachedMask = 0
	h.claimMu.Unlock()

	pkg.LogDebug(pkg.ComponentUsbfs, "device closed", "id", h.device.ID())
	return closeDevice(h.fd)
}

// checkOpen reports ErrClosed after Close.
func (h *Handle) checkOpen() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return pkg.ErrClosed
	}
	return nil
}

// timeoutFor derives the usbfs timeout in milliseconds from ctx, falling
// back to the handle default when no deadline is set.
func (h *Handle) timeoutFor(ctx context.Context) uint32 {
	if deadline, ok := ctx.Deadline(); ok {
		ms := time.Until(deadline).Milliseconds()
		if ms < 1 {
			ms = 1
		}
		return uint32(ms)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.transferTimeout
}

// ClaimInterface claims exclusive access to an interface, detaching any
// bound kernel driver first. The driver is reattached on Close.
func (h *Handle) ClaimInterface(iface uint8) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if iface >= 32 {
		return pkg.ErrInvalidParameter
	}

	h.claimMu.Lock()
	defer h.claimMu.Unlock()

	mask := uint32(1) << iface
	if h.claimedMask&mask != 0 {
		return nil
	}

	if driver := boundDriver(h.fd, iface); driver != "" && driver != "usbfs" {
		if err := detachDriver(h.fd, iface); err != nil {
			// ENODATA means no driver was attached after all
			if !isNoData(err) {
				return fmt.Errorf("detach %s from interface %d: %w",
					driver, iface, mapErrno(err))
			}
		} else {
			h.detachedMask |= mask
			pkg.LogDebug(pkg.ComponentUsbfs, "kernel driver detached",
				"interface", iface,
				"driver", driver)
		}
	}

	if err := claimInterface(h.fd, iface); err != nil {
		return fmt.Errorf("claim interface %d: %w", iface, mapErrno(err))
	}

	h.claimedMask |= mask
	return nil
}

// ReleaseInterface releases a previously claimed interface.
func (h *Handle) ReleaseInterface(iface uint8) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if iface >= 32 {
		return pkg.ErrInvalidParameter
	}

	h.claimMu.Lock()
	defer h.claimMu.Unlock()

	mask := uint32(1) << iface
	if h.claimedMask&mask == 0 {
		return nil
	}

	if err := releaseInterface(h.fd, iface); err != nil {
		return fmt.Errorf("release interface %d: %w", iface, mapErrno(err))
	}
	h.claimedMask &^= mask

	if h.detachedMask&mask != 0 {
		attachDriver(h.fd, iface)
		h.detachedMask &^= mask
	}
	return nil
}

// SetConfiguration selects the active configuration by its
// bConfigurationValue. All interfaces must be unclaimed.
func (h *Handle) SetConfiguration(value uint8) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if err := setConfiguration(h.fd, value); err != nil {
		return fmt.Errorf("set configuration %d: %w", value, mapErrno(err))
	}
	return nil
}

// SetAltSetting selects an alternate setting on a claimed interface.
func (h *Handle) SetAltSetting(iface, alt uint8) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if err := setAltSetting(h.fd, iface, alt); err != nil {
		return fmt.Errorf("set interface %d alt %d: %w", iface, alt, mapErrno(err))
	}
	return nil
}

// ControlTransfer performs a control transfer on endpoint zero. It returns
// the number of bytes transferred in the data phase.
func (h *Handle) ControlTransfer(ctx context.Context, reqType, req uint8, value, index uint16, data []byte) (int, error) {
	if err := h.checkOpen(); err != nil {
		return 0, err
	}
	if len(data) > MaxControlTransferSize {
		return 0, pkg.ErrTransferTooLarge
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := doControlTransfer(h.fd, reqType, req, value, index, data, h.timeoutFor(ctx))
	if err != nil {
		return 0, fmt.Errorf("control 0x%02x/0x%02x: %w", reqType, req, mapErrno(err))
	}
	return n, nil
}

// BulkTransfer performs a bulk transfer on the given endpoint. The
// direction is encoded in the endpoint address. It returns the number of
// bytes transferred.
func (h *Handle) BulkTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	if err := h.checkOpen(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := doBulkTransfer(h.fd, endpoint, data, h.timeoutFor(ctx))
	if err != nil {
		return 0, fmt.Errorf("bulk 0x%02x: %w", endpoint, mapErrno(err))
	}
	return n, nil
}

// Reset performs a USB port reset on the device. Claimed interfaces stay
// claimed; a device that re-enumerates returns ErrNoDevice on later calls.
func (h *Handle) Reset() error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if err := resetDevice(h.fd); err != nil {
		return fmt.Errorf("reset: %w", mapErrno(err))
	}
	return nil
}

// ClearHalt clears the halt condition on an endpoint.
func (h *Handle) ClearHalt(endpoint uint8) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if err := resetEndpoint(h.fd, endpoint); err != nil {
		return fmt.Errorf("clear halt 0x%02x: %w", endpoint, mapErrno(err))
	}
	return nil
}

// StringDescriptor reads and decodes the string descriptor at index.
// Index zero and unset indices return "".
func (h *Handle) StringDescriptor(ctx context.Context, index uint8) (string, error) {
	if index == 0 {
		return "", nil
	}

	var buf [255]byte
	n, err := h.ControlTransfer(ctx,
		requestTypeIn|requestTypeStandard|requestTypeDevice,
		requestGetDescriptor,
		uint16(usb.DescriptorTypeString)<<8|uint16(index),
		langIDUSEnglish,
		buf[:])
	if err != nil {
		return "", err
	}
	return usb.DecodeUTF16String(buf[:n]), nil
}

// ReadStrings fills the manufacturer, product, and serial number strings
// of the snapshot from the device. Failures are non-fatal; absent strings
// stay empty.
func (h *Handle) ReadStrings(ctx context.Context) {
	desc := &h.device.Descriptor
	if s, err := h.StringDescriptor(ctx, desc.ManufacturerIndex); err == nil && s != "" {
		h.device.Manufacturer = s
	}
	if s, err := h.StringDescriptor(ctx, desc.ProductIndex); err == nil && s != "" {
		h.device.Product = s
	}
	if s, err := h.StringDescriptor(ctx, desc.SerialNumberIndex); err == nil && s != "" {
		h.device.SerialNumber = s
	}
}

// devfsPath constructs a /dev/bus/usb path from bus and device numbers.
func devfsPath(busNum, devNum uint8) string {
	return fmt.Sprintf("%s/%03d/%03d", DevfsUSBPath, busNum, devNum)
}
