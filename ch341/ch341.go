package ch341

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardnew/ch341/pkg"
	"github.com/ardnew/ch341/usb"
)

// Transport is the USB access a Bridge needs: control transfers on
// endpoint zero and bulk transfers on the vendor endpoints.
type Transport interface {
	ControlTransfer(ctx context.Context, reqType, req uint8, value, index uint16, data []byte) (int, error)
	BulkTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error)
	Close() error
}

// Bridge is an open CH341A adapter.
//
// Command streams on the bulk pipes are serialized under an internal
// mutex; a Bridge is safe for concurrent use.
type Bridge struct {
	transport Transport
	device    *usb.Device

	// Last stream mode applied with SetStream. SPI transfers consult
	// its bit-order bit.
	mode uint8

	mu sync.Mutex
}

// requestTypeVendorIn is the bmRequestType of a device-to-host vendor
// request.
const requestTypeVendorIn = 0xC0

// newBridge wraps an open transport. The device snapshot may be nil.
func newBridge(t Transport, dev *usb.Device) *Bridge {
	return &Bridge{transport: t, device: dev, mode: ModeI2C100KHz}
}

// Device returns the descriptor snapshot of the adapter, or nil when the
// transport was not opened from one.
func (b *Bridge) Device() *usb.Device {
	return b.device
}

// ProductName returns the product string reported by the adapter.
func (b *Bridge) ProductName() string {
	if b.device == nil {
		return ""
	}
	return b.device.Product
}

// Version reads the chip version with the vendor version request.
func (b *Bridge) Version(ctx context.Context) (uint8, error) {
	var buf [2]byte

	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.transport.ControlTransfer(ctx, requestTypeVendorIn, requestVersion, 0, 0, buf[:])
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if n < 1 {
		return 0, pkg.ErrShortTransfer
	}

	pkg.LogDebug(pkg.ComponentBridge, "chip version", "version", buf[0])
	return buf[0], nil
}

// SetStream applies the stream mode register. Bits 1:0 select the I2C
// speed, bit 2 enables SPI double I/O, bit 7 selects MSB-first SPI byte
// order. Any other bit set is rejected.
func (b *Bridge) SetStream(ctx context.Context, mode uint8) error {
	if mode&^uint8(modeValidMask) != 0 {
		return fmt.Errorf("mode 0x%02x: %w", mode, pkg.ErrInvalidStreamMode)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	packet := []byte{cmdI2CStream, i2cStreamSet | mode&0x0F, i2cStreamEnd}
	if err := b.bulkWrite(ctx, packet); err != nil {
		return fmt.Errorf("set stream mode 0x%02x: %w", mode, err)
	}

	b.mode = mode
	pkg.LogDebug(pkg.ComponentBridge, "stream mode set",
		"mode", fmt.Sprintf("0x%02x", mode),
		"msb_first", mode&ModeSPIMSBFirst != 0)
	return nil
}

// SPI returns an SPI bus on this bridge using the given chip-select
// parameter. With ChipSelectEnable set, bits 1:0 pick the active-low
// select pin among D0/D1/D2; without it no pin is driven.
func (b *Bridge) SPI(chipSelect uint8) (*SPI, error) {
	switch {
	case chipSelect&ChipSelectEnable != 0:
		if chipSelect&^uint8(ChipSelectEnable|csPinMask) != 0 || chipSelect&csPinMask > 2 {
			return nil, fmt.Errorf("chip select 0x%02x: %w", chipSelect, pkg.ErrInvalidChipSelect)
		}
	case chipSelect != ChipSelectNone:
		return nil, fmt.Errorf("chip select 0x%02x: %w", chipSelect, pkg.ErrInvalidChipSelect)
	}
	return &SPI{bridge: b, chipSelect: chipSelect}, nil
}

// Close closes the underlying transport. On a usbfs transport this
// releases the claimed interface and reattaches the kernel driver.
func (b *Bridge) Close() error {
	return b.transport.Close()
}

// bulkWrite sends one complete command packet on the bulk OUT endpoint.
// Callers hold b.mu.
func (b *Bridge) bulkWrite(ctx context.Context, packet []byte) error {
	n, err := b.transport.BulkTransfer(ctx, EndpointBulkOut, packet)
	if err != nil {
		return err
	}
	if n != len(packet) {
		return pkg.ErrShortTransfer
	}
	return nil
}

// bulkRead fills buf from the bulk IN endpoint. Callers hold b.mu.
func (b *Bridge) bulkRead(ctx context.Context, buf []byte) error {
	n, err := b.transport.BulkTransfer(ctx, EndpointBulkIn, buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return pkg.ErrShortTransfer
	}
	return nil
}
