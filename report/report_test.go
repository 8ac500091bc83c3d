package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/ch341/usb"
	"github.com/ardnew/ch341/usb/usbid"
)

// bridgeDevice builds the snapshot of a CH341A adapter as the kernel
// reports it: vendor-class device, one configuration, one interface with
// bulk IN/OUT and an interrupt IN endpoint.
func bridgeDevice() *usb.Device {
	return &usb.Device{
		Bus:     1,
		Address: 5,
		Speed:   usb.SpeedFull,
		Descriptor: usb.DeviceDescriptor{
			Length:            18,
			DescriptorType:    usb.DescriptorTypeDevice,
			USBVersion:        0x0110,
			DeviceClass:       usb.ClassVendor,
			DeviceProtocol:    2,
			MaxPacketSize0:    8,
			VendorID:          0x1A86,
			ProductID:         0x5512,
			DeviceVersion:     0x0304,
			ProductIndex:      2,
			NumConfigurations: 1,
		},
		Product: "USB2.0-Ser!",
		Configs: []usb.Config{{
			Descriptor: usb.ConfigurationDescriptor{
				Length:             9,
				DescriptorType:     usb.DescriptorTypeConfiguration,
				TotalLength:        39,
				NumInterfaces:      1,
				ConfigurationValue: 1,
				Attributes:         0x80,
				MaxPower:           0x30,
			},
			Interfaces: []usb.Interface{{
				Descriptor: usb.InterfaceDescriptor{
					Length:            9,
					DescriptorType:    usb.DescriptorTypeInterface,
					NumEndpoints:      3,
					InterfaceClass:    usb.ClassVendor,
					InterfaceSubClass: 1,
					InterfaceProtocol: 2,
				},
				Endpoints: []usb.EndpointDescriptor{
					{
						Length: 7, DescriptorType: usb.DescriptorTypeEndpoint,
						EndpointAddress: 0x82, Attributes: 0x02, MaxPacketSize: 32,
					},
					{
						Length: 7, DescriptorType: usb.DescriptorTypeEndpoint,
						EndpointAddress: 0x02, Attributes: 0x02, MaxPacketSize: 32,
					},
					{
						Length: 7, DescriptorType: usb.DescriptorTypeEndpoint,
						EndpointAddress: 0x81, Attributes: 0x03, MaxPacketSize: 8,
						Interval: 1,
					},
				},
			}},
		}},
	}
}

// testDatabase loads an ID database from a temporary usb.ids file.
func testDatabase(t *testing.T) *usbid.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "usb.ids")
	const ids = "1a86  QinHeng Electronics\n" +
		"\t5512  CH341 in EPP/MEM/I2C mode, EPP/I2C adapter\n"
	if err := os.WriteFile(path, []byte(ids), 0o644); err != nil {
		t.Fatal(err)
	}

	db := usbid.NewWithPaths([]string{path})
	if !db.Load() {
		t.Fatal("database did not load")
	}
	return db
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name   string
		ids    bool
		modify func(*usb.Device)
		want   string
	}{
		{
			name: "device strings preferred",
			ids:  true,
			want: "Bus 001 Device 005: ID 1a86:5512 QinHeng Electronics USB2.0-Ser!",
		},
		{
			name: "database fallback",
			ids:  true,
			modify: func(dev *usb.Device) {
				dev.Product = ""
			},
			want: "Bus 001 Device 005: ID 1a86:5512 QinHeng Electronics " +
				"CH341 in EPP/MEM/I2C mode, EPP/I2C adapter",
		},
		{
			name: "no database",
			modify: func(dev *usb.Device) {
				dev.Product = ""
			},
			want: "Bus 001 Device 005: ID 1a86:5512",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dev := bridgeDevice()
			if test.modify != nil {
				test.modify(dev)
			}

			var ids *usbid.Database
			if test.ids {
				ids = testDatabase(t)
			}

			var buf strings.Builder
			New(&buf, ids).Summary(dev)

			got := strings.TrimRight(buf.String(), "\n")
			if got != test.want {
				t.Errorf("Summary() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestDevice(t *testing.T) {
	var buf strings.Builder
	New(&buf, testDatabase(t)).Device(bridgeDevice())
	out := buf.String()

	wantLines := []string{
		"Bus 001 Device 005: ID 1a86:5512 QinHeng Electronics USB2.0-Ser!",
		"Device Descriptor:",
		"  bLength                    18",
		"  bcdUSB                   1.10",
		"  bDeviceClass              255  Vendor Specific",
		"  idVendor               0x1a86  QinHeng Electronics",
		"  idProduct              0x5512  CH341 in EPP/MEM/I2C mode, EPP/I2C adapter",
		"  bcdDevice                3.04",
		"  iProduct                    2  USB2.0-Ser!",
		"  Configuration Descriptor:",
		"    wTotalLength           0x0027",
		"    bmAttributes             0x80  Bus Powered",
		"    MaxPower                 96mA",
		"    Interface Descriptor:",
		"      bInterfaceClass           255  Vendor Specific",
		"      Endpoint Descriptor:",
		"        bEndpointAddress         0x82  EP 2 IN",
		"        bmAttributes             0x02  Bulk",
		"        wMaxPacketSize         0x0020  32 bytes",
		"        bEndpointAddress         0x81  EP 1 IN",
		"        bmAttributes             0x03  Interrupt",
		"        bInterval                   1",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("report missing line %q\nfull report:\n%s", line, out)
		}
	}

	// Three endpoint sections under the single interface.
	if n := strings.Count(out, "Endpoint Descriptor:"); n != 3 {
		t.Errorf("endpoint sections = %d, want 3", n)
	}
}

func TestTable(t *testing.T) {
	var buf strings.Builder
	New(&buf, testDatabase(t)).Table([]*usb.Device{bridgeDevice()})
	out := buf.String()

	for _, want := range []string{
		"Bus", "Addr", "001", "005", "1a86:5512",
		"Vendor Specific", "QinHeng Electronics", "USB2.0-Ser!",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q\nfull table:\n%s", want, out)
		}
	}
}
