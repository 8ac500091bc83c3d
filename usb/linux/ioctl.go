//go:build linux

package linux

import "unsafe"

// ioctl number encoding (asm-generic/ioctl.h):
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-29: argument size (size)
//	bits 30-31: direction (dir)

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

// ioc constructs an ioctl number from direction, type, number, and size.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// ior constructs a read ioctl number.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iow constructs a write ioctl number.
func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// iowr constructs a read/write ioctl number.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// io constructs an ioctl number with no data transfer.
func io(typ, nr uintptr) uintptr {
	return ioc(iocNone, typ, nr, 0)
}

// usbdevfs ioctl type character.
const usbdevfsType = 'U'

// usbdevfs ioctl command numbers (linux/usbdevice_fs.h).
const (
	ioctlControl          = 0
	ioctlBulk             = 2
	ioctlResetEP          = 3
	ioctlSetInterface     = 4
	ioctlSetConfiguration = 5
	ioctlGetDriver        = 8
	ioctlClaimInterface   = 15
	ioctlReleaseInterface = 16
	ioctlConnectInfo      = 17
	ioctlIoctl            = 18
	ioctlReset            = 20
	ioctlDisconnect       = 22
	ioctlConnect          = 23
	ioctlGetCapabilities  = 26
)

// Usbdevfs ioctl numbers, sized for the host architecture.
var (
	ioctlUsbdevfsControl          = iowr(usbdevfsType, ioctlControl, unsafe.Sizeof(ctrlTransfer{}))
	ioctlUsbdevfsBulk             = iowr(usbdevfsType, ioctlBulk, unsafe.Sizeof(bulkTransfer{}))
	ioctlUsbdevfsResetEP          = ior(usbdevfsType, ioctlResetEP, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsSetInterface     = ior(usbdevfsType, ioctlSetInterface, unsafe.Sizeof(setInterface{}))
	ioctlUsbdevfsSetConfiguration = ior(usbdevfsType, ioctlSetConfiguration, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsGetDriver        = iow(usbdevfsType, ioctlGetDriver, unsafe.Sizeof(getDriver{}))
	ioctlUsbdevfsClaimInterface   = ior(usbdevfsType, ioctlClaimInterface, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsReleaseInterface = ior(usbdevfsType, ioctlReleaseInterface, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsConnectInfo      = iow(usbdevfsType, ioctlConnectInfo, unsafe.Sizeof(connectInfo{}))
	ioctlUsbdevfsIoctl            = iowr(usbdevfsType, ioctlIoctl, unsafe.Sizeof(usbdevfsIoctl{}))
	ioctlUsbdevfsReset            = io(usbdevfsType, ioctlReset)
	ioctlUsbdevfsGetCapabilities  = ior(usbdevfsType, ioctlGetCapabilities, unsafe.Sizeof(uint32(0)))
)
