// Package pkg provides shared utilities for the ch341 toolkit.
//
// This package contains common functionality used across the USB access
// layer and the bridge/radio drivers, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for USB and bridge protocol errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentBridge, "stream mode set", "mode", mode)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrNoDevice) {
//	    // Adapter was unplugged
//	}
package pkg
