package ch341

// USB identity of the CH341A in EPP/MEM/I2C mode.
const (
	VendorID  = 0x1A86
	ProductID = 0x5512
)

// Endpoint addresses of the vendor interface.
const (
	EndpointBulkOut     = 0x02
	EndpointBulkIn      = 0x82
	EndpointInterruptIn = 0x81
)

// PacketSize is the bulk packet size of the CH341A. Command streams never
// span packets; payload is chunked to fit one packet with its command byte.
const PacketSize = 32

// Vendor control requests.
const (
	requestVersion = 0x5F // chip version, 2 bytes IN
)

// Bulk command stream opcodes.
const (
	cmdSPIStream = 0xA8 // full-duplex SPI shift, one byte in per byte out
	cmdI2CStream = 0xAA // I2C command stream, carries the mode register
	cmdUIOStream = 0xAB // GPIO command stream on pins D0-D5
)

// I2C stream sub-commands.
const (
	i2cStreamSet = 0x60 // set mode register bits in the low nibble
	i2cStreamEnd = 0x00 // terminate the command stream
)

// UIO stream sub-commands. OUT and DIR carry pin states in their low
// six bits.
const (
	uioStreamIn  = 0x00 // read pin states
	uioStreamEnd = 0x20 // terminate the command stream
	uioStreamDir = 0x40 // set pin directions, 1 = output
	uioStreamOut = 0x80 // set output pin states
)

// Stream mode register bits.
const (
	ModeI2C20KHz    = 0x00 // I2C low speed
	ModeI2C100KHz   = 0x01 // I2C standard speed
	ModeI2C400KHz   = 0x02 // I2C fast speed
	ModeI2C750KHz   = 0x03 // I2C high speed
	ModeSPIDualIO   = 0x04 // SPI double I/O (D4/D6 as second data pair)
	ModeSPIMSBFirst = 0x80 // SPI bit order, high bit first

	modeValidMask = ModeI2C750KHz | ModeSPIDualIO | ModeSPIMSBFirst
)

// Chip select parameter bits. Bit 7 enables chip-select control; bits 1:0
// select which of D0/D1/D2 is pulled low around the transfer.
const (
	ChipSelectEnable = 0x80
	ChipSelectD0     = ChipSelectEnable | 0x00
	ChipSelectD1     = ChipSelectEnable | 0x01
	ChipSelectD2     = ChipSelectEnable | 0x02
	ChipSelectNone   = 0x00

	csPinMask = 0x03
)

// uioIdle is the idle UIO output state: D0-D2 chip selects high, D3 clock
// low, D4-D5 high.
const (
	uioIdle      = 0x37
	uioDirOutput = 0x3F
)
