// Package sx126x implements the SPI command set of the Semtech SX126x
// LoRa transceiver family.
//
// Every command is a full-duplex SPI frame: the opcode and parameters go
// out while the radio shifts its status and response bytes back on the
// same clock. The package drives any full-duplex Bus; the ch341 package
// provides one over a CH341A USB adapter.
package sx126x
