package main

import (
	"context"
	"strings"
	"testing"

	"github.com/ardnew/ch341/usb/linux"
	"github.com/ardnew/ch341/usb/usbid"
)

func TestStreamEvents_CleanExitOnCancel(t *testing.T) {
	// A signal cancels the context, which stops the watcher and closes
	// its channel; the command must exit zero, not "context canceled".
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan linux.Event)
	close(events)

	var buf strings.Builder
	if err := streamEvents(ctx, events, usbid.NewWithPaths(nil), &buf); err != nil {
		t.Errorf("streamEvents() after cancel = %v, want nil", err)
	}
}

func TestStreamEvents_Output(t *testing.T) {
	events := make(chan linux.Event, 1)
	events <- linux.Event{
		Action:    linux.ActionAdd,
		Bus:       1,
		Address:   5,
		VendorID:  0x1A86,
		ProductID: 0x5512,
	}
	close(events)

	var buf strings.Builder
	if err := streamEvents(context.Background(), events, usbid.NewWithPaths(nil), &buf); err != nil {
		t.Fatalf("streamEvents() = %v", err)
	}

	want := "add    Bus 001 Device 005: ID 1a86:5512\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
