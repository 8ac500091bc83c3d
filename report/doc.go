// Package report renders USB descriptor snapshots as text.
//
// Three forms are provided: a one-line summary per device, a table of
// devices, and the full inspection report. The full report prints one
// descriptor field per row with the USB spec field name, a fixed-width
// hex or decimal value, and an optional human-readable annotation, nested
// by tree depth.
package report
