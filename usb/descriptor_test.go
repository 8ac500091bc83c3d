package usb

import (
	"errors"
	"testing"

	"github.com/ardnew/ch341/pkg"
)

// ch341aDeviceDescriptor is the 18-byte device descriptor of a CH341A
// adapter in EPP/MEM/I2C/SPI mode (VID 1a86, PID 5512).
var ch341aDeviceDescriptor = []byte{
	0x12, 0x01, // bLength, bDescriptorType
	0x10, 0x01, // bcdUSB 1.10
	0xFF, 0x00, 0x02, // class, subclass, protocol
	0x08,       // bMaxPacketSize0
	0x86, 0x1A, // idVendor 0x1A86
	0x12, 0x55, // idProduct 0x5512
	0x04, 0x03, // bcdDevice 3.04
	0x00, 0x02, 0x00, // iManufacturer, iProduct, iSerialNumber
	0x01, // bNumConfigurations
}

func TestParseDeviceDescriptor(t *testing.T) {
	var desc DeviceDescriptor
	if err := ParseDeviceDescriptor(ch341aDeviceDescriptor, &desc); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if desc.VendorID != 0x1A86 {
		t.Errorf("VendorID = 0x%04X, want 0x1A86", desc.VendorID)
	}
	if desc.ProductID != 0x5512 {
		t.Errorf("ProductID = 0x%04X, want 0x5512", desc.ProductID)
	}
	if desc.USBVersion != 0x0110 {
		t.Errorf("USBVersion = 0x%04X, want 0x0110", uint16(desc.USBVersion))
	}
	if desc.DeviceClass != ClassVendor {
		t.Errorf("DeviceClass = 0x%02X, want 0x%02X", desc.DeviceClass, ClassVendor)
	}
	if desc.MaxPacketSize0 != 8 {
		t.Errorf("MaxPacketSize0 = %d, want 8", desc.MaxPacketSize0)
	}
	if desc.NumConfigurations != 1 {
		t.Errorf("NumConfigurations = %d, want 1", desc.NumConfigurations)
	}
}

func TestParseDeviceDescriptor_TooShort(t *testing.T) {
	var desc DeviceDescriptor
	err := ParseDeviceDescriptor(make([]byte, 10), &desc)
	if !errors.Is(err, pkg.ErrDescriptorTooShort) {
		t.Errorf("err = %v, want %v", err, pkg.ErrDescriptorTooShort)
	}
}

func TestParseDeviceDescriptor_WrongType(t *testing.T) {
	data := make([]byte, 18)
	data[0] = 18
	data[1] = DescriptorTypeConfiguration
	var desc DeviceDescriptor
	err := ParseDeviceDescriptor(data, &desc)
	if !errors.Is(err, pkg.ErrDescriptorTypeMismatch) {
		t.Errorf("err = %v, want %v", err, pkg.ErrDescriptorTypeMismatch)
	}
}

func TestParseEndpointDescriptor(t *testing.T) {
	data := []byte{0x07, 0x05, 0x82, 0x02, 0x20, 0x00, 0x00}

	var ep EndpointDescriptor
	if err := ParseEndpointDescriptor(data, &ep); err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if ep.EndpointAddress != 0x82 {
		t.Errorf("EndpointAddress = 0x%02X, want 0x82", ep.EndpointAddress)
	}
	if ep.Number() != 2 {
		t.Errorf("Number() = %d, want 2", ep.Number())
	}
	if ep.Direction() != DirectionIn {
		t.Errorf("Direction() = %v, want IN", ep.Direction())
	}
	if ep.TransferType() != TransferTypeBulk {
		t.Errorf("TransferType() = %v, want Bulk", ep.TransferType())
	}
	if ep.MaxPacketSize != 32 {
		t.Errorf("MaxPacketSize = %d, want 32", ep.MaxPacketSize)
	}
}

func TestDirection_String(t *testing.T) {
	if got := DirectionIn.String(); got != "IN" {
		t.Errorf("DirectionIn.String() = %q, want IN", got)
	}
	if got := DirectionOut.String(); got != "OUT" {
		t.Errorf("DirectionOut.String() = %q, want OUT", got)
	}
}

func TestTransferType_String(t *testing.T) {
	tests := []struct {
		typ  TransferType
		want string
	}{
		{TransferTypeControl, "Control"},
		{TransferTypeIsochronous, "Isochronous"},
		{TransferTypeBulk, "Bulk"},
		{TransferTypeInterrupt, "Interrupt"},
		{TransferType(7), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("TransferType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestBCD_String(t *testing.T) {
	tests := []struct {
		bcd  BCD
		want string
	}{
		{0x0110, "1.10"},
		{0x0200, "2.00"},
		{0x0304, "3.04"},
	}

	for _, tt := range tests {
		if got := tt.bcd.String(); got != tt.want {
			t.Errorf("BCD(0x%04X).String() = %q, want %q", uint16(tt.bcd), got, tt.want)
		}
	}
}

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		input string
		want  Speed
	}{
		{"1.5", SpeedLow},
		{"12", SpeedFull},
		{"480", SpeedHigh},
		{"", SpeedUnknown},
		{"5000", SpeedUnknown}, // SuperSpeed not supported
		{"invalid", SpeedUnknown},
	}

	for _, tt := range tests {
		if got := ParseSpeed(tt.input); got != tt.want {
			t.Errorf("ParseSpeed(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestClassName(t *testing.T) {
	tests := []struct {
		class uint8
		want  string
	}{
		{ClassVendor, "Vendor Specific"},
		{ClassHID, "Human Interface Device"},
		{ClassHub, "Hub"},
		{0x42, ""},
	}

	for _, tt := range tests {
		if got := ClassName(tt.class); got != tt.want {
			t.Errorf("ClassName(0x%02X) = %q, want %q", tt.class, got, tt.want)
		}
	}
}
