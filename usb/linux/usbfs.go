//go:build linux

package linux

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/ch341/pkg"
)

// =============================================================================
// usbdevfs Structures
// =============================================================================

// ctrlTransfer represents a control transfer request.
// This must match the kernel's struct usbdevfs_ctrltransfer layout.
type ctrlTransfer struct {
	requestType uint8   // bmRequestType
	request     uint8   // bRequest
	value       uint16  // wValue
	index       uint16  // wIndex
	length      uint16  // wLength
	timeout     uint32  // Timeout in milliseconds
	data        uintptr // Data buffer pointer
}

// bulkTransfer represents a bulk transfer request.
// This must match the kernel's struct usbdevfs_bulktransfer layout.
type bulkTransfer struct {
	endpoint uint32  // Endpoint address
	length   uint32  // Data length
	timeout  uint32  // Timeout in milliseconds
	data     uintptr // Data buffer pointer
}

// setInterface represents a SET_INTERFACE request.
// This must match the kernel's struct usbdevfs_setinterface layout.
type setInterface struct {
	iface      uint32 // Interface number
	altSetting uint32 // Alternate setting
}

// getDriver reports the kernel driver bound to an interface.
// This must match the kernel's struct usbdevfs_getdriver layout.
type getDriver struct {
	iface  uint32     // Interface number
	driver [256]uint8 // NUL-terminated driver name
}

// connectInfo holds device connection information.
// This must match the kernel's struct usbdevfs_connectinfo layout.
type connectInfo struct {
	devnum uint32 // Device number
	slow   uint8  // Low speed flag
}

// usbdevfsIoctl forwards an ioctl to the driver bound to an interface.
// This must match the kernel's struct usbdevfs_ioctl layout.
type usbdevfsIoctl struct {
	ifno      int32   // Interface number
	ioctlCode int32   // Forwarded ioctl code
	data      uintptr // Argument pointer
}

// =============================================================================
// Raw Syscall Wrappers
// =============================================================================

// openDevice opens a USB device node for read/write access.
func openDevice(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

// closeDevice closes a device file descriptor.
func closeDevice(fd int) error {
	return unix.Close(fd)
}

// ioctlRaw performs a raw ioctl syscall.
func ioctlRaw(fd int, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// ioctlRetval performs an ioctl syscall and returns the result value.
func ioctlRetval(fd int, req uintptr, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

// =============================================================================
// USBDEVFS Operations
// =============================================================================

// doControlTransfer performs a synchronous control transfer.
func doControlTransfer(fd int, reqType, req uint8, value, index uint16, data []byte, timeout uint32) (int, error) {
	ctrl := ctrlTransfer{
		requestType: reqType,
		request:     req,
		value:       value,
		index:       index,
		length:      uint16(len(data)),
		timeout:     timeout,
	}
	if len(data) > 0 {
		ctrl.data = uintptr(unsafe.Pointer(&data[0]))
	}

	return ioctlRetval(fd, ioctlUsbdevfsControl, uintptr(unsafe.Pointer(&ctrl)))
}

// doBulkTransfer performs a synchronous bulk transfer.
func doBulkTransfer(fd int, endpoint uint8, data []byte, timeout uint32) (int, error) {
	bulk := bulkTransfer{
		endpoint: uint32(endpoint),
		length:   uint32(len(data)),
		timeout:  timeout,
	}
	if len(data) > 0 {
		bulk.data = uintptr(unsafe.Pointer(&data[0]))
	}

	return ioctlRetval(fd, ioctlUsbdevfsBulk, uintptr(unsafe.Pointer(&bulk)))
}

// claimInterface claims exclusive access to an interface.
func claimInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsClaimInterface, uintptr(unsafe.Pointer(&ifaceNum)))
}

// releaseInterface releases a previously claimed interface.
func releaseInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	return ioctlRaw(fd, ioctlUsbdevfsReleaseInterface, uintptr(unsafe.Pointer(&ifaceNum)))
}

// setAltSetting selects an alternate setting on an interface.
func setAltSetting(fd int, iface, alt uint8) error {
	req := setInterface{iface: uint32(iface), altSetting: uint32(alt)}
	return ioctlRaw(fd, ioctlUsbdevfsSetInterface, uintptr(unsafe.Pointer(&req)))
}

// boundDriver returns the name of the kernel driver bound to an interface,
// or "" if none is bound.
func boundDriver(fd int, iface uint8) string {
	req := getDriver{iface: uint32(iface)}
	if err := ioctlRaw(fd, ioctlUsbdevfsGetDriver, uintptr(unsafe.Pointer(&req))); err != nil {
		return ""
	}
	n := 0
	for n < len(req.driver) && req.driver[n] != 0 {
		n++
	}
	return string(req.driver[:n])
}

// detachDriver disconnects the kernel driver from an interface. The
// disconnect ioctl is forwarded to the bound driver via USBDEVFS_IOCTL.
func detachDriver(fd int, iface uint8) error {
	req := usbdevfsIoctl{
		ifno:      int32(iface),
		ioctlCode: int32(io(usbdevfsType, ioctlDisconnect)),
	}
	return ioctlRaw(fd, ioctlUsbdevfsIoctl, uintptr(unsafe.Pointer(&req)))
}

// attachDriver asks the kernel to rebind a driver to an interface.
func attachDriver(fd int, iface uint8) error {
	req := usbdevfsIoctl{
		ifno:      int32(iface),
		ioctlCode: int32(io(usbdevfsType, ioctlConnect)),
	}
	return ioctlRaw(fd, ioctlUsbdevfsIoctl, uintptr(unsafe.Pointer(&req)))
}

// resetDevice resets the USB device.
func resetDevice(fd int) error {
	return ioctlRaw(fd, ioctlUsbdevfsReset, 0)
}

// resetEndpoint clears the data toggle of an endpoint.
func resetEndpoint(fd int, endpoint uint8) error {
	ep := uint32(endpoint)
	return ioctlRaw(fd, ioctlUsbdevfsResetEP, uintptr(unsafe.Pointer(&ep)))
}

// setConfiguration selects the active configuration.
func setConfiguration(fd int, value uint8) error {
	cfg := uint32(value)
	return ioctlRaw(fd, ioctlUsbdevfsSetConfiguration, uintptr(unsafe.Pointer(&cfg)))
}

// getCapabilities retrieves usbfs capability flags.
func getCapabilities(fd int) (uint32, error) {
	var caps uint32
	if err := ioctlRaw(fd, ioctlUsbdevfsGetCapabilities, uintptr(unsafe.Pointer(&caps))); err != nil {
		return 0, err
	}
	return caps, nil
}

// getConnectInfo retrieves device connection information.
func getConnectInfo(fd int) (connectInfo, error) {
	var info connectInfo
	err := ioctlRaw(fd, ioctlUsbdevfsConnectInfo, uintptr(unsafe.Pointer(&info)))
	return info, err
}

// =============================================================================
// Error Mapping
// =============================================================================

// mapErrno translates usbfs errno values to toolkit sentinel errors.
// Unrecognized errors are returned unchanged.
func mapErrno(err error) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.ENODEV, unix.ENOENT, unix.ENXIO:
		return pkg.ErrNoDevice
	case unix.ETIMEDOUT, unix.ETIME:
		return pkg.ErrTimeout
	case unix.EPIPE:
		return pkg.ErrStall
	case unix.EACCES, unix.EPERM:
		return pkg.ErrPermission
	case unix.EBUSY:
		return pkg.ErrBusy
	default:
		return err
	}
}

// isNoData returns true if the error indicates no data (ENODATA).
func isNoData(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno) && errno == unix.ENODATA
}
