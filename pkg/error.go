package pkg

import "errors"

// USB access errors.
var (
	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrCancelled indicates a cancelled operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrPermission indicates insufficient permission to open a device node.
	ErrPermission = errors.New("permission denied")

	// ErrBusy indicates the device or interface is in use.
	ErrBusy = errors.New("resource busy")

	// ErrClosed indicates the handle has been closed.
	ErrClosed = errors.New("handle closed")

	// ErrShortTransfer indicates fewer bytes were transferred than requested.
	ErrShortTransfer = errors.New("short transfer")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")
)

// Bridge and radio errors.
var (
	// ErrInvalidStreamMode indicates a stream mode with reserved bits set.
	ErrInvalidStreamMode = errors.New("invalid stream mode")

	// ErrInvalidChipSelect indicates an unsupported chip-select selector.
	ErrInvalidChipSelect = errors.New("invalid chip select")

	// ErrTransferTooLarge indicates a transfer exceeding the device limit.
	ErrTransferTooLarge = errors.New("transfer too large")

	// ErrCommandTimeout indicates the radio reported a command timeout.
	ErrCommandTimeout = errors.New("command timeout")

	// ErrCommandProcessing indicates the radio could not process a command.
	ErrCommandProcessing = errors.New("command processing error")

	// ErrCommandExecution indicates the radio failed to execute a command.
	ErrCommandExecution = errors.New("command execution failure")
)
