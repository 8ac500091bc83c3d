//go:build linux

package linux

// =============================================================================
// System Paths
// =============================================================================

// SysfsUSBPath is the base path for USB devices in sysfs.
const SysfsUSBPath = "/sys/bus/usb/devices"

// DevfsUSBPath is the base path for USB device nodes.
const DevfsUSBPath = "/dev/bus/usb"

// =============================================================================
// Transfer Limits
// =============================================================================

// MaxControlTransferSize is the maximum size for a control transfer data phase.
const MaxControlTransferSize = 4096

// MaxDescriptorBlobSize bounds the sysfs descriptors file read. A single
// configuration cannot exceed 64 KiB (wTotalLength is 16 bits).
const MaxDescriptorBlobSize = 65536

// DefaultTransferTimeout is the default usbfs transfer timeout in milliseconds.
const DefaultTransferTimeout = 5000

// =============================================================================
// Netlink Constants
// =============================================================================

// netlinkKObjectUEvent is the netlink protocol for udev events.
const netlinkKObjectUEvent = 15 // NETLINK_KOBJECT_UEVENT

// ueventBufferSize is the buffer size for netlink messages.
const ueventBufferSize = 4096

// =============================================================================
// Standard Requests (USB 2.0 Spec Table 9-4)
// =============================================================================

// Standard request codes used on endpoint zero.
const (
	requestGetStatus        = 0x00
	requestClearFeature     = 0x01
	requestSetFeature       = 0x03
	requestSetAddress       = 0x05
	requestGetDescriptor    = 0x06
	requestSetDescriptor    = 0x07
	requestGetConfiguration = 0x08
	requestSetConfiguration = 0x09
)

// bmRequestType fields.
const (
	requestTypeIn       = 0x80
	requestTypeOut      = 0x00
	requestTypeStandard = 0x00
	requestTypeClass    = 0x20
	requestTypeVendor   = 0x40
	requestTypeDevice   = 0x00
	requestTypeIface    = 0x01
	requestTypeEndpoint = 0x02
)

// langIDUSEnglish is the string descriptor language ID for US English.
const langIDUSEnglish = 0x0409
