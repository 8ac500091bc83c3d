// Package ch341 drives the WCH CH341A USB bridge in SPI mode.
//
// The adapter exposes a vendor-class interface with one bulk OUT, one bulk
// IN, and one interrupt IN endpoint. Every operation is a command packet on
// the bulk OUT pipe, optionally followed by a read on the bulk IN pipe.
// Three command streams matter here: the I2C stream configures the shared
// mode register, the UIO stream drives the D0-D5 GPIO pins for chip select,
// and the SPI stream shifts full-duplex data on D3 (clock), D5 (out), and
// D7 (in).
//
// The chip shifts SPI data LSB-first. When the stream mode selects MSB-first
// byte order, the driver reverses the bit order of every byte in both
// directions.
package ch341
