//go:build linux

package linux

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ardnew/ch341/pkg"
)

// =============================================================================
// Hotplug Events
// =============================================================================

// EventAction identifies the kind of hotplug event.
type EventAction uint8

// Hotplug actions.
const (
	ActionUnknown EventAction = iota
	ActionAdd
	ActionRemove
)

// String returns the udev name of the action.
func (a EventAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event describes a USB device arrival or removal.
type Event struct {
	Action    EventAction
	Bus       uint8
	Address   uint8
	VendorID  uint16
	ProductID uint16
	SysfsPath string
}

// uevent is one parsed netlink kobject message.
type uevent struct {
	action    EventAction
	devpath   string // DEVPATH value
	subsystem string // SUBSYSTEM value
	devtype   string // DEVTYPE value
	busnum    string // BUSNUM value
	devnum    string // DEVNUM value
	vendorID  string // PRODUCT vendor field
	productID string // PRODUCT model field
}

// =============================================================================
// Hotplug Watcher
// =============================================================================

// Watcher delivers USB hotplug events from the kernel uevent broadcast.
type Watcher struct {
	fd     int
	events chan Event
	done   chan struct{}

	// Close races between callers and the context hook in readLoop.
	closeOnce sync.Once
}

// NewWatcher opens the netlink uevent socket and starts delivering events.
// The caller owns the returned watcher and must Close it.
func NewWatcher(ctx context.Context) (*Watcher, error) {
	fd, err := unix.Socket(
		unix.AF_NETLINK,
		unix.SOCK_DGRAM|unix.SOCK_CLOEXEC,
		netlinkKObjectUEvent,
	)
	if err != nil {
		return nil, err
	}

	// Bind to the kernel broadcast group
	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	w := &Watcher{
		fd:     fd,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go w.readLoop(ctx)

	pkg.LogDebug(pkg.ComponentHotplug, "watcher started")
	return w, nil
}

// Events returns the channel of hotplug events. The channel is closed when
// the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and closes the event channel. It is safe to
// call concurrently and more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		// Closing the socket unblocks the read loop.
		err = unix.Close(w.fd)
	})
	return err
}

// readLoop reads uevents until the socket closes or ctx is cancelled.
func (w *Watcher) readLoop(ctx context.Context) {
	defer close(w.events)

	stop := context.AfterFunc(ctx, func() { w.Close() })
	defer stop()

	buf := make([]byte, ueventBufferSize)
	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			select {
			case <-w.done:
			case <-ctx.Done():
			default:
				pkg.LogWarn(pkg.ComponentHotplug, "uevent read failed",
					"error", err)
			}
			return
		}
		if n <= 0 {
			continue
		}

		evt := parseUEvent(buf[:n])

		// Only whole-device events matter; interface bind/unbind and
		// other subsystems are ignored.
		if evt.subsystem != "usb" || evt.devtype != "usb_device" {
			continue
		}
		if evt.action != ActionAdd && evt.action != ActionRemove {
			continue
		}

		event := evt.toEvent()
		pkg.LogDebug(pkg.ComponentHotplug, "uevent",
			"action", event.Action.String(),
			"bus", event.Bus,
			"address", event.Address)

		select {
		case w.events <- event:
		default:
			// Channel full, drop event
		}
	}
}

// =============================================================================
// UEvent Parsing
// =============================================================================

// parseUEvent parses a netlink uevent message into its key=value fields.
func parseUEvent(data []byte) uevent {
	evt := uevent{}

	// Split into null-terminated strings
	for _, line := range bytes.Split(data, []byte{0}) {
		if len(line) == 0 {
			continue
		}

		s := string(line)

		idx := strings.IndexByte(s, '=')
		if idx < 0 {
			// First line is the summary "action@devpath"
			if at := strings.IndexByte(s, '@'); at > 0 {
				evt.action = parseAction(s[:at])
				evt.devpath = s[at+1:]
			}
			continue
		}

		key, value := s[:idx], s[idx+1:]
		switch key {
		case "ACTION":
			evt.action = parseAction(value)
		case "DEVPATH":
			evt.devpath = value
		case "SUBSYSTEM":
			evt.subsystem = value
		case "DEVTYPE":
			evt.devtype = value
		case "BUSNUM":
			evt.busnum = value
		case "DEVNUM":
			evt.devnum = value
		case "PRODUCT":
			// PRODUCT=vid/pid/bcdDevice in hex without padding
			parts := strings.Split(value, "/")
			if len(parts) >= 2 {
				evt.vendorID = parts[0]
				evt.productID = parts[1]
			}
		}
	}

	return evt
}

// parseAction maps a udev action name to an EventAction.
func parseAction(s string) EventAction {
	switch s {
	case "add":
		return ActionAdd
	case "remove":
		return ActionRemove
	default:
		return ActionUnknown
	}
}

// toEvent converts parsed uevent fields to a public Event.
func (evt *uevent) toEvent() Event {
	e := Event{
		Action:    evt.action,
		SysfsPath: filepath.Join(SysfsUSBPath, filepath.Base(evt.devpath)),
	}
	if v, err := strconv.ParseUint(evt.busnum, 10, 8); err == nil {
		e.Bus = uint8(v)
	}
	if v, err := strconv.ParseUint(evt.devnum, 10, 8); err == nil {
		e.Address = uint8(v)
	}
	if v, err := strconv.ParseUint(evt.vendorID, 16, 16); err == nil {
		e.VendorID = uint16(v)
	}
	if v, err := strconv.ParseUint(evt.productID, 16, 16); err == nil {
		e.ProductID = uint16(v)
	}
	return e
}
