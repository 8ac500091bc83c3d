// Package usb models USB descriptor data as an immutable snapshot tree.
//
// A [Device] captured from the bus owns its [Config] children, each Config
// owns [Interface] settings, and each Interface owns [Endpoint] entries.
// The tree is strict: no cycles, no shared ownership, and nothing mutates
// a snapshot once it is built. Descriptor layouts follow the USB 2.0
// specification (chapter 9) and are parsed from the little-endian wire
// format with length and type validation.
//
// Snapshots are produced by the platform layer in
// [github.com/ardnew/ch341/usb/linux], which reads descriptor blobs from
// sysfs without opening the device node.
package usb
