// Package usbid resolves USB vendor and product IDs to human-readable
// names using the usb.ids database shipped by most Linux distributions.
//
// The database is loaded lazily from the first readable path in
// [DefaultPaths]. Lookups on an unloaded or missing database return the
// empty string, so annotation stays best-effort.
package usbid
