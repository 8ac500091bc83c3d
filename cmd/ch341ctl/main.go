// Command ch341ctl inspects USB devices and drives SX126x radios behind
// CH341A USB-SPI adapters.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ardnew/ch341/ch341"
	"github.com/ardnew/ch341/pkg"
	"github.com/ardnew/ch341/report"
	"github.com/ardnew/ch341/sx126x"
	"github.com/ardnew/ch341/usb"
	"github.com/ardnew/ch341/usb/linux"
	"github.com/ardnew/ch341/usb/usbid"
)

func main() {
	app := &cli.App{
		Name:  "ch341ctl",
		Usage: "inspect USB devices and drive CH341A-attached SX126x radios",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "write logs as JSON",
			},
			&cli.IntFlag{
				Name:    "device",
				Aliases: []string{"d"},
				Usage:   "adapter `index` among connected CH341A devices",
			},
			&cli.UintFlag{
				Name:  "mode",
				Usage: "stream mode register `value`",
				Value: ch341.ModeSPIMSBFirst,
			},
			&cli.StringFlag{
				Name:  "cs",
				Usage: "chip select `pin`: d0, d1, d2, or none",
				Value: "d0",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("json") {
				pkg.SetLogFormat(pkg.LogFormatJSON)
			}
			if c.Bool("verbose") {
				pkg.SetLogLevel(slog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			listCommand(),
			infoCommand(),
			watchCommand(),
			radioCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ch341ctl:", err)
		os.Exit(1)
	}
}

// database loads the USB ID database, logging when none is found.
func database() *usbid.Database {
	db := usbid.New()
	if !db.Load() {
		pkg.LogWarn(pkg.ComponentReport, "no usb.ids database found",
			"paths", strings.Join(usbid.DefaultPaths, ":"))
	}
	return db
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list connected USB devices",
		Action: func(c *cli.Context) error {
			devices, err := linux.Enumerate()
			if err != nil {
				return err
			}
			report.New(os.Stdout, database()).Table(devices)
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the full descriptor report of matching devices",
		ArgsUsage: "[vvvv:pppp | bus:addr]",
		Action: func(c *cli.Context) error {
			devices, err := linux.Enumerate()
			if err != nil {
				return err
			}
			if filter := c.Args().First(); filter != "" {
				if devices, err = filterDevices(devices, filter); err != nil {
					return err
				}
			}
			if len(devices) == 0 {
				return pkg.ErrNoDevice
			}

			r := report.New(os.Stdout, database())
			for i, dev := range devices {
				if i > 0 {
					fmt.Println()
				}
				r.Device(dev)
			}
			return nil
		},
	}
}

// filterDevices narrows the device list by a "vvvv:pppp" hex ID or a
// decimal "bus:addr" location.
func filterDevices(devices []*usb.Device, filter string) ([]*usb.Device, error) {
	left, right, ok := strings.Cut(filter, ":")
	if !ok {
		return nil, fmt.Errorf("filter %q: %w", filter, pkg.ErrInvalidParameter)
	}

	// Hex VID:PID is four digits per side; anything else is bus:addr.
	if len(left) == 4 && len(right) == 4 {
		vid, errV := strconv.ParseUint(left, 16, 16)
		pid, errP := strconv.ParseUint(right, 16, 16)
		if errV == nil && errP == nil {
			return matchDevices(devices, func(d *usb.Device) bool {
				return d.Descriptor.VendorID == uint16(vid) &&
					d.Descriptor.ProductID == uint16(pid)
			}), nil
		}
	}

	bus, errB := strconv.ParseUint(left, 10, 8)
	addr, errA := strconv.ParseUint(right, 10, 8)
	if errB != nil || errA != nil {
		return nil, fmt.Errorf("filter %q: %w", filter, pkg.ErrInvalidParameter)
	}
	return matchDevices(devices, func(d *usb.Device) bool {
		return d.Bus == uint8(bus) && d.Address == uint8(addr)
	}), nil
}

func matchDevices(devices []*usb.Device, keep func(*usb.Device) bool) []*usb.Device {
	var matched []*usb.Device
	for _, dev := range devices {
		if keep(dev) {
			matched = append(matched, dev)
		}
	}
	return matched
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "stream device attach and detach events",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher, err := linux.NewWatcher(ctx)
			if err != nil {
				return err
			}
			defer watcher.Close()

			return streamEvents(ctx, watcher.Events(), database(), os.Stdout)
		},
	}
}

// streamEvents prints hotplug events until the channel closes. The
// channel closing because the signal context was cancelled is a clean
// exit, not an error.
func streamEvents(ctx context.Context, events <-chan linux.Event, ids *usbid.Database, w io.Writer) error {
	for event := range events {
		line := fmt.Sprintf("%-6s Bus %03d Device %03d: ID %04x:%04x %s",
			event.Action, event.Bus, event.Address,
			event.VendorID, event.ProductID, ids.LookupVendor(event.VendorID))
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func radioCommand() *cli.Command {
	return &cli.Command{
		Name:  "radio",
		Usage: "issue SX126x commands over a CH341A adapter",
		Subcommands: []*cli.Command{
			{
				Name:  "status",
				Usage: "read and decode the radio status byte",
				Action: func(c *cli.Context) error {
					return withRadio(c, func(ctx context.Context, radio *sx126x.Radio) error {
						status, err := radio.GetStatus(ctx)
						if err != nil {
							return err
						}
						fmt.Println("status:", status)
						return nil
					})
				},
			},
			{
				Name:      "type",
				Usage:     "get or set the packet type",
				ArgsUsage: "[get | set gfsk|lora]",
				Action: func(c *cli.Context) error {
					return withRadio(c, func(ctx context.Context, radio *sx126x.Radio) error {
						return runPacketType(ctx, radio, c.Args().Slice())
					})
				},
			},
			{
				Name:      "standby",
				Usage:     "place the radio in standby",
				ArgsUsage: "[rc | xosc]",
				Action: func(c *cli.Context) error {
					return withRadio(c, func(ctx context.Context, radio *sx126x.Radio) error {
						config := sx126x.StandbyRC
						if c.Args().First() == "xosc" {
							config = sx126x.StandbyXOSC
						}
						return radio.SetStandby(ctx, config)
					})
				},
			},
		},
	}
}

func runPacketType(ctx context.Context, radio *sx126x.Radio, args []string) error {
	if len(args) == 0 || args[0] == "get" {
		status, packetType, err := radio.GetPacketType(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("packet type: %s (status: %s)\n", packetType, status)
		return nil
	}

	if args[0] != "set" || len(args) < 2 {
		return fmt.Errorf("packet type arguments %q: %w", args, pkg.ErrInvalidParameter)
	}

	var packetType sx126x.PacketType
	switch args[1] {
	case "gfsk":
		packetType = sx126x.PacketTypeGFSK
	case "lora":
		packetType = sx126x.PacketTypeLoRa
	default:
		return fmt.Errorf("packet type %q: %w", args[1], pkg.ErrInvalidParameter)
	}
	return radio.SetPacketType(ctx, packetType)
}

// withRadio opens the selected adapter, configures its stream mode and
// chip select from the global flags, and runs fn with a radio on the
// resulting SPI bus.
func withRadio(c *cli.Context, fn func(context.Context, *sx126x.Radio) error) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chipSelect, err := parseChipSelect(c.String("cs"))
	if err != nil {
		return err
	}

	bridge, err := ch341.Open(ctx, c.Int("device"))
	if err != nil {
		return err
	}
	defer bridge.Close()

	if name := bridge.ProductName(); name != "" {
		pkg.LogInfo(pkg.ComponentBridge, "using adapter", "product", name)
	}
	if err := bridge.SetStream(ctx, uint8(c.Uint("mode"))); err != nil {
		return err
	}

	spi, err := bridge.SPI(chipSelect)
	if err != nil {
		return err
	}
	return fn(ctx, sx126x.New(spi))
}

func parseChipSelect(name string) (uint8, error) {
	switch strings.ToLower(name) {
	case "d0":
		return ch341.ChipSelectD0, nil
	case "d1":
		return ch341.ChipSelectD1, nil
	case "d2":
		return ch341.ChipSelectD2, nil
	case "none":
		return ch341.ChipSelectNone, nil
	}
	return 0, fmt.Errorf("chip select %q: %w", name, pkg.ErrInvalidChipSelect)
}
