package sx126x

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/ch341/pkg"
)

// statusStandbyRC is a healthy status byte: STBY_RC mode, data available.
const statusStandbyRC = 0x24

// fakeBus records each frame shifted out and overwrites it with the
// scripted response of the same command, mimicking full-duplex SPI.
type fakeBus struct {
	frames    [][]byte
	responses [][]byte
	err       error
}

func (f *fakeBus) Transfer(_ context.Context, buf []byte) error {
	frame := make([]byte, len(buf))
	copy(frame, buf)
	f.frames = append(f.frames, frame)

	if f.err != nil {
		return f.err
	}
	if len(f.responses) > 0 {
		copy(buf, f.responses[0])
		f.responses = f.responses[1:]
	}
	return nil
}

// respond pads a response with a leading RFU byte and healthy status so
// tests only spell out the payload bytes.
func respond(payload ...byte) []byte {
	return append([]byte{0x00, statusStandbyRC}, payload...)
}

func TestSetStandby(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{respond()}}
	radio := New(bus)

	require.NoError(t, radio.SetStandby(context.Background(), StandbyXOSC))
	require.Len(t, bus.frames, 1)
	assert.Equal(t, []byte{opSetStandby, 0x01}, bus.frames[0])
}

func TestSetSleep(t *testing.T) {
	// Sleep responses are undefined; a zero status must not be an error.
	bus := &fakeBus{}
	radio := New(bus)

	require.NoError(t, radio.SetSleep(context.Background(), SleepWarm))
	assert.Equal(t, []byte{opSetSleep, 0x04}, bus.frames[0])
}

func TestSetTxRx(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{
		respond(0x00, 0x00),
		respond(0x00, 0x00),
	}}
	radio := New(bus)

	require.NoError(t, radio.SetTx(context.Background(), 0x0186A0))
	require.NoError(t, radio.SetRx(context.Background(), 0xFFFFFF))

	assert.Equal(t, []byte{opSetTx, 0x01, 0x86, 0xA0}, bus.frames[0])
	assert.Equal(t, []byte{opSetRx, 0xFF, 0xFF, 0xFF}, bus.frames[1])
}

func TestPacketType(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{
		respond(),
		respond(uint8(PacketTypeLoRa)),
	}}
	radio := New(bus)
	ctx := context.Background()

	require.NoError(t, radio.SetPacketType(ctx, PacketTypeLoRa))
	assert.Equal(t, []byte{opSetPacketType, 0x01}, bus.frames[0])

	status, packetType, err := radio.GetPacketType(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{opGetPacketType, 0x00, 0x00}, bus.frames[1])
	assert.Equal(t, Status(statusStandbyRC), status)
	assert.Equal(t, PacketTypeLoRa, packetType)
}

func TestGetStatus(t *testing.T) {
	// TX mode with command TX done: 0x6 << 4 | 0x6 << 1.
	bus := &fakeBus{responses: [][]byte{{0x00, 0x6C}}}
	radio := New(bus)

	status, err := radio.GetStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []byte{opGetStatus, 0x00}, bus.frames[0])
	assert.Equal(t, ChipModeTX, status.ChipMode())
	assert.Equal(t, CommandStatusTxDone, status.CommandStatus())
	assert.Equal(t, "TX, TX done (0x6c)", status.String())
}

func TestGetRxBufferStatus(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{respond(0x40, 0x80)}}
	radio := New(bus)

	rx, err := radio.GetRxBufferStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []byte{opGetRxBufferStatus, 0x00, 0x00, 0x00}, bus.frames[0])
	assert.Equal(t, uint8(0x40), rx.PayloadLength)
	assert.Equal(t, uint8(0x80), rx.StartPointer)
}

func TestRegisterAccess(t *testing.T) {
	// Sync word registers at 0x0740; read data starts after the header
	// and status NOP.
	bus := &fakeBus{responses: [][]byte{
		{0x00, statusStandbyRC, 0x00, 0x00, 0x14, 0x24},
		respond(),
	}}
	radio := New(bus)
	ctx := context.Background()

	buf := make([]byte, 2)
	require.NoError(t, radio.ReadRegister(ctx, 0x0740, buf))
	assert.Equal(t, []byte{opReadRegister, 0x07, 0x40, 0x00, 0x00, 0x00}, bus.frames[0])
	assert.Equal(t, []byte{0x14, 0x24}, buf)

	require.NoError(t, radio.WriteRegister(ctx, 0x0740, []byte{0x34, 0x44}))
	assert.Equal(t, []byte{opWriteRegister, 0x07, 0x40, 0x34, 0x44}, bus.frames[1])
}

func TestBufferAccess(t *testing.T) {
	// Buffer read data starts after the opcode, offset, and status NOP.
	bus := &fakeBus{responses: [][]byte{
		{0x00, statusStandbyRC, 0x00, 0xDE, 0xAD},
		respond(),
	}}
	radio := New(bus)
	ctx := context.Background()

	buf := make([]byte, 2)
	require.NoError(t, radio.ReadBuffer(ctx, 0x80, buf))
	assert.Equal(t, []byte{opReadBuffer, 0x80, 0x00, 0x00, 0x00}, bus.frames[0])
	assert.Equal(t, []byte{0xDE, 0xAD}, buf)

	require.NoError(t, radio.WriteBuffer(ctx, 0x00, []byte{0xBE, 0xEF}))
	assert.Equal(t, []byte{opWriteBuffer, 0x00, 0xBE, 0xEF}, bus.frames[1])
}

func TestIrqStatus(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{
		respond(0x02, 0x01),
		respond(),
	}}
	radio := New(bus)
	ctx := context.Background()

	status, irq, err := radio.GetIrqStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{opGetIrqStatus, 0x00, 0x00, 0x00}, bus.frames[0])
	assert.Equal(t, Status(statusStandbyRC), status)
	assert.Equal(t, uint16(0x0201), irq)

	require.NoError(t, radio.ClearIrqStatus(ctx, 0x0201))
	assert.Equal(t, []byte{opClearIrqStatus, 0x02, 0x01}, bus.frames[1])
}

func TestCommandStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status uint8
		want   error
	}{
		{"timeout", 0x26, pkg.ErrCommandTimeout},
		{"processing error", 0x28, pkg.ErrCommandProcessing},
		{"execution failure", 0x2A, pkg.ErrCommandExecution},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := &fakeBus{responses: [][]byte{{0x00, test.status}}}
			radio := New(bus)

			err := radio.SetStandby(context.Background(), StandbyRC)
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestBusErrorPropagates(t *testing.T) {
	bus := &fakeBus{err: pkg.ErrTimeout}
	radio := New(bus)

	_, err := radio.GetStatus(context.Background())
	assert.ErrorIs(t, err, pkg.ErrTimeout)
}

func TestReadRegisterSyncWord(t *testing.T) {
	// Frame length grows with the read length, one NOP per data byte
	// after the three-byte header and status NOP.
	bus := &fakeBus{responses: [][]byte{make([]byte, 12)}}
	radio := New(bus)

	buf := make([]byte, 8)
	require.NoError(t, radio.ReadRegister(context.Background(), 0x06C0, buf))
	require.Len(t, bus.frames[0], 12)
}
