//go:build linux

// Package linux provides USB device access on Linux without cgo.
//
// Enumeration reads device attributes and raw descriptor blobs from sysfs
// (/sys/bus/usb/devices), which requires no special privileges and never
// disturbs a bound kernel driver. Live access opens the usbfs device node
// (/dev/bus/usb/BBB/DDD) and issues usbdevfs ioctls for control and bulk
// transfers, interface claiming, and kernel driver detach.
//
// Hotplug notification uses a NETLINK_KOBJECT_UEVENT socket, the same
// mechanism udev listens on.
package linux
