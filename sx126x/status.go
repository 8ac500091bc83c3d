package sx126x

import (
	"fmt"

	"github.com/ardnew/ch341/pkg"
)

// Status is the radio status byte shifted back on every command.
type Status uint8

// ChipMode is the operating mode field of a status byte (bits 6:4).
type ChipMode uint8

// Chip modes.
const (
	ChipModeStandbyRC   ChipMode = 0x2
	ChipModeStandbyXOSC ChipMode = 0x3
	ChipModeFS          ChipMode = 0x4
	ChipModeRX          ChipMode = 0x5
	ChipModeTX          ChipMode = 0x6
)

// String returns the datasheet name of the chip mode.
func (m ChipMode) String() string {
	switch m {
	case ChipModeStandbyRC:
		return "STBY_RC"
	case ChipModeStandbyXOSC:
		return "STBY_XOSC"
	case ChipModeFS:
		return "FS"
	case ChipModeRX:
		return "RX"
	case ChipModeTX:
		return "TX"
	default:
		return fmt.Sprintf("ChipMode(%#x)", uint8(m))
	}
}

// CommandStatus is the command result field of a status byte (bits 3:1).
type CommandStatus uint8

// Command statuses.
const (
	CommandStatusDataAvailable CommandStatus = 0x2
	CommandStatusTimeout       CommandStatus = 0x3
	CommandStatusProcessing    CommandStatus = 0x4
	CommandStatusFailure       CommandStatus = 0x5
	CommandStatusTxDone        CommandStatus = 0x6
)

// String returns a short name for the command status.
func (c CommandStatus) String() string {
	switch c {
	case CommandStatusDataAvailable:
		return "data available"
	case CommandStatusTimeout:
		return "command timeout"
	case CommandStatusProcessing:
		return "processing error"
	case CommandStatusFailure:
		return "execution failure"
	case CommandStatusTxDone:
		return "TX done"
	default:
		return fmt.Sprintf("CommandStatus(%#x)", uint8(c))
	}
}

// ChipMode extracts the operating mode field.
func (s Status) ChipMode() ChipMode {
	return ChipMode(uint8(s) >> 4 & 0x07)
}

// CommandStatus extracts the command result field.
func (s Status) CommandStatus() CommandStatus {
	return CommandStatus(uint8(s) >> 1 & 0x07)
}

// Err maps a failing command status to its error, or nil for any
// non-failure status.
func (s Status) Err() error {
	switch s.CommandStatus() {
	case CommandStatusTimeout:
		return pkg.ErrCommandTimeout
	case CommandStatusProcessing:
		return pkg.ErrCommandProcessing
	case CommandStatusFailure:
		return pkg.ErrCommandExecution
	default:
		return nil
	}
}

// String formats the status as "mode, command status (0xNN)".
func (s Status) String() string {
	return fmt.Sprintf("%s, %s (0x%02x)", s.ChipMode(), s.CommandStatus(), uint8(s))
}
