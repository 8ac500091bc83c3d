package sx126x

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ardnew/ch341/pkg"
)

// Bus is a full-duplex SPI bus: Transfer shifts buf out and replaces it
// in place with the bytes shifted back.
type Bus interface {
	Transfer(ctx context.Context, buf []byte) error
}

// Radio drives one SX126x transceiver over a Bus. Methods follow the
// command set of the datasheet; framing and status decoding are handled
// here, register values are the caller's business.
type Radio struct {
	bus Bus
}

// New creates a radio on the given bus.
func New(bus Bus) *Radio {
	return &Radio{bus: bus}
}

// Command opcodes.
const (
	opClearIrqStatus    = 0x02
	opWriteRegister     = 0x0D
	opWriteBuffer       = 0x0E
	opGetPacketType     = 0x11
	opGetIrqStatus      = 0x12
	opGetRxBufferStatus = 0x13
	opReadRegister      = 0x1D
	opReadBuffer        = 0x1E
	opSetStandby        = 0x80
	opSetRx             = 0x82
	opSetTx             = 0x83
	opSetSleep          = 0x84
	opSetPacketType     = 0x8A
	opGetStatus         = 0xC0
)

// StandbyConfig selects the standby clock source.
type StandbyConfig uint8

// Standby configurations.
const (
	StandbyRC   StandbyConfig = 0x00 // 13 MHz RC oscillator
	StandbyXOSC StandbyConfig = 0x01 // 32 MHz crystal
)

// SleepConfig selects the sleep mode behavior.
type SleepConfig uint8

// Sleep configuration bits.
const (
	SleepCold      SleepConfig = 0x00 // configuration lost on wakeup
	SleepWarm      SleepConfig = 0x04 // configuration retained
	SleepRTCWakeup SleepConfig = 0x01 // wake on RTC timeout
)

// PacketType selects the radio modem.
type PacketType uint8

// Packet types.
const (
	PacketTypeGFSK PacketType = 0x00
	PacketTypeLoRa PacketType = 0x01
)

// String returns the modem name.
func (p PacketType) String() string {
	switch p {
	case PacketTypeGFSK:
		return "GFSK"
	case PacketTypeLoRa:
		return "LoRa"
	default:
		return fmt.Sprintf("PacketType(%#x)", uint8(p))
	}
}

// RxBufferStatus describes the last received packet.
type RxBufferStatus struct {
	Status        Status
	PayloadLength uint8 // bytes received
	StartPointer  uint8 // offset of the first byte in the data buffer
}

// command shifts one frame over the bus, logging request and response in
// hex. The frame holds the response in place on return.
func (r *Radio) command(ctx context.Context, name string, frame []byte) error {
	pkg.LogDebug(pkg.ComponentRadio, "command",
		"name", name,
		"request", hex.EncodeToString(frame))

	if err := r.bus.Transfer(ctx, frame); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	pkg.LogDebug(pkg.ComponentRadio, "response",
		"name", name,
		"response", hex.EncodeToString(frame))
	return nil
}

// checked runs command and surfaces a failing command status, read from
// byte 1 of the response, as an error.
func (r *Radio) checked(ctx context.Context, name string, frame []byte) error {
	if err := r.command(ctx, name, frame); err != nil {
		return err
	}
	if err := Status(frame[1]).Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// SetSleep puts the radio to sleep. The response is not status-checked:
// the chip stops driving the bus once the command lands.
func (r *Radio) SetSleep(ctx context.Context, config SleepConfig) error {
	return r.command(ctx, "SetSleep", []byte{opSetSleep, uint8(config)})
}

// SetStandby places the radio in standby on the selected clock source.
func (r *Radio) SetStandby(ctx context.Context, config StandbyConfig) error {
	return r.checked(ctx, "SetStandby", []byte{opSetStandby, uint8(config) & 0x01})
}

// SetTx starts transmission. The timeout is in 15.625 us steps, 24 bits;
// zero disables it.
func (r *Radio) SetTx(ctx context.Context, timeout uint32) error {
	return r.checked(ctx, "SetTx", []byte{
		opSetTx, uint8(timeout >> 16), uint8(timeout >> 8), uint8(timeout),
	})
}

// SetRx starts reception. The timeout is in 15.625 us steps, 24 bits;
// zero means single-shot without timeout, 0xFFFFFF continuous.
func (r *Radio) SetRx(ctx context.Context, timeout uint32) error {
	return r.checked(ctx, "SetRx", []byte{
		opSetRx, uint8(timeout >> 16), uint8(timeout >> 8), uint8(timeout),
	})
}

// SetPacketType selects the modem. The radio must be in STBY_RC when the
// modem changes; this command is the first of a configuration sequence.
func (r *Radio) SetPacketType(ctx context.Context, packetType PacketType) error {
	return r.checked(ctx, "SetPacketType", []byte{opSetPacketType, uint8(packetType) & 0x01})
}

// GetPacketType returns the selected modem.
func (r *Radio) GetPacketType(ctx context.Context) (Status, PacketType, error) {
	frame := []byte{opGetPacketType, 0x00, 0x00}
	if err := r.checked(ctx, "GetPacketType", frame); err != nil {
		return 0, 0, err
	}
	return Status(frame[1]), PacketType(frame[2]), nil
}

// GetStatus reads the status byte. It can be issued in any mode.
func (r *Radio) GetStatus(ctx context.Context) (Status, error) {
	frame := []byte{opGetStatus, 0x00}
	if err := r.command(ctx, "GetStatus", frame); err != nil {
		return 0, err
	}
	return Status(frame[1]), nil
}

// GetRxBufferStatus returns the length and buffer offset of the last
// received packet.
func (r *Radio) GetRxBufferStatus(ctx context.Context) (RxBufferStatus, error) {
	frame := []byte{opGetRxBufferStatus, 0x00, 0x00, 0x00}
	if err := r.checked(ctx, "GetRxBufferStatus", frame); err != nil {
		return RxBufferStatus{}, err
	}
	return RxBufferStatus{
		Status:        Status(frame[1]),
		PayloadLength: frame[2],
		StartPointer:  frame[3],
	}, nil
}

// ReadRegister fills buf from consecutive registers starting at address.
// The response carries data after the opcode, address, and status NOP.
func (r *Radio) ReadRegister(ctx context.Context, address uint16, buf []byte) error {
	frame := make([]byte, 4+len(buf))
	frame[0] = opReadRegister
	frame[1] = uint8(address >> 8)
	frame[2] = uint8(address)

	if err := r.checked(ctx, "ReadRegister", frame); err != nil {
		return err
	}
	copy(buf, frame[4:])
	return nil
}

// WriteRegister writes data to consecutive registers starting at address.
func (r *Radio) WriteRegister(ctx context.Context, address uint16, data []byte) error {
	frame := make([]byte, 3+len(data))
	frame[0] = opWriteRegister
	frame[1] = uint8(address >> 8)
	frame[2] = uint8(address)
	copy(frame[3:], data)

	return r.checked(ctx, "WriteRegister", frame)
}

// ReadBuffer fills buf from the data buffer starting at offset. The
// response carries data after the opcode, offset, and status NOP.
func (r *Radio) ReadBuffer(ctx context.Context, offset uint8, buf []byte) error {
	frame := make([]byte, 3+len(buf))
	frame[0] = opReadBuffer
	frame[1] = offset

	if err := r.checked(ctx, "ReadBuffer", frame); err != nil {
		return err
	}
	copy(buf, frame[3:])
	return nil
}

// WriteBuffer writes data into the data buffer starting at offset.
func (r *Radio) WriteBuffer(ctx context.Context, offset uint8, data []byte) error {
	frame := make([]byte, 2+len(data))
	frame[0] = opWriteBuffer
	frame[1] = offset
	copy(frame[2:], data)

	return r.checked(ctx, "WriteBuffer", frame)
}

// GetIrqStatus returns the pending interrupt flags.
func (r *Radio) GetIrqStatus(ctx context.Context) (Status, uint16, error) {
	frame := []byte{opGetIrqStatus, 0x00, 0x00, 0x00}
	if err := r.checked(ctx, "GetIrqStatus", frame); err != nil {
		return 0, 0, err
	}
	return Status(frame[1]), uint16(frame[2])<<8 | uint16(frame[3]), nil
}

// ClearIrqStatus clears the interrupt flags set in mask.
func (r *Radio) ClearIrqStatus(ctx context.Context, mask uint16) error {
	return r.checked(ctx, "ClearIrqStatus", []byte{
		opClearIrqStatus, uint8(mask >> 8), uint8(mask),
	})
}
