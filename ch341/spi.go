package ch341

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ardnew/ch341/pkg"
)

// SPI is a 4-wire SPI bus on a CH341A bridge: clock on D3, data out on
// D5, data in on D7, chip select on one of D0/D1/D2.
type SPI struct {
	bridge     *Bridge
	chipSelect uint8
}

// spiChunkSize is the SPI payload per bulk packet, leaving room for the
// stream command byte.
const spiChunkSize = PacketSize - 1

// Transfer shifts buf out on the bus and replaces it in place with the
// bytes shifted in. Chip select, when enabled, is asserted before the
// first chunk and released after the last, including on error.
func (s *SPI) Transfer(ctx context.Context, buf []byte) error {
	b := s.bridge

	b.mu.Lock()
	defer b.mu.Unlock()

	msbFirst := b.mode&ModeSPIMSBFirst != 0

	if s.chipSelect&ChipSelectEnable != 0 {
		if err := s.assertSelect(ctx); err != nil {
			return fmt.Errorf("assert chip select: %w", err)
		}
		defer s.releaseSelect(context.WithoutCancel(ctx))
	}

	for offset := 0; offset < len(buf); offset += spiChunkSize {
		end := offset + spiChunkSize
		if end > len(buf) {
			end = len(buf)
		}
		if err := s.shiftChunk(ctx, buf[offset:end], msbFirst); err != nil {
			return fmt.Errorf("spi transfer at offset %d: %w", offset, err)
		}
	}

	pkg.LogDebug(pkg.ComponentSPI, "transfer complete",
		"bytes", len(buf),
		"chip_select", fmt.Sprintf("0x%02x", s.chipSelect))
	return nil
}

// shiftChunk runs one SPI stream packet: command byte plus payload out on
// the bulk OUT pipe, the same number of bytes read back on bulk IN. The
// chunk is replaced in place. Callers hold the bridge mutex.
func (s *SPI) shiftChunk(ctx context.Context, chunk []byte, msbFirst bool) error {
	packet := make([]byte, 1+len(chunk))
	packet[0] = cmdSPIStream
	for i, c := range chunk {
		if msbFirst {
			c = bits.Reverse8(c)
		}
		packet[1+i] = c
	}

	if err := s.bridge.bulkWrite(ctx, packet); err != nil {
		return err
	}
	if err := s.bridge.bulkRead(ctx, chunk); err != nil {
		return err
	}

	if msbFirst {
		for i, c := range chunk {
			chunk[i] = bits.Reverse8(c)
		}
	}
	return nil
}

// assertSelect drives the selected pin low and all pins to output with a
// UIO command stream. Callers hold the bridge mutex.
func (s *SPI) assertSelect(ctx context.Context) error {
	pin := uint8(1) << (s.chipSelect & csPinMask)
	packet := []byte{
		cmdUIOStream,
		uioStreamOut | (uioIdle &^ pin),
		uioStreamDir | uioDirOutput,
		uioStreamEnd,
	}
	return s.bridge.bulkWrite(ctx, packet)
}

// releaseSelect returns all chip-select pins to their idle high state.
// Callers hold the bridge mutex.
func (s *SPI) releaseSelect(ctx context.Context) error {
	packet := []byte{
		cmdUIOStream,
		uioStreamOut | uioIdle,
		uioStreamEnd,
	}
	return s.bridge.bulkWrite(ctx, packet)
}
