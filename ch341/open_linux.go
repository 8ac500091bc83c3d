//go:build linux

package ch341

import (
	"context"
	"fmt"

	"github.com/ardnew/ch341/pkg"
	"github.com/ardnew/ch341/usb/linux"
)

// Open opens the index-th CH341A adapter on the bus, claims its vendor
// interface, and reads its string descriptors. The kernel driver bound to
// the interface, if any, is detached until Close.
func Open(ctx context.Context, index int) (*Bridge, error) {
	if index < 0 {
		return nil, pkg.ErrInvalidParameter
	}

	devices, err := linux.FindByID(VendorID, ProductID)
	if err != nil {
		return nil, fmt.Errorf("enumerate adapters: %w", err)
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("adapter %d of %d: %w", index, len(devices), pkg.ErrNoDevice)
	}

	dev := devices[index]
	handle, err := linux.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open adapter %s: %w", dev.BusAddress(), err)
	}

	if err := handle.ClaimInterface(0); err != nil {
		handle.Close()
		return nil, fmt.Errorf("claim adapter interface: %w", err)
	}
	handle.ReadStrings(ctx)

	pkg.LogInfo(pkg.ComponentBridge, "adapter opened",
		"device", dev.BusAddress(),
		"product", dev.Product)
	return newBridge(handle, dev), nil
}
