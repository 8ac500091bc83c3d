package usb

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/ardnew/ch341/pkg"
)

// Device is a snapshot of one connected USB device and its descriptor tree.
//
// Identity is (VendorID, ProductID, bus, address); the snapshot is immutable
// for the life of the physical connection it records.
type Device struct {
	Bus     uint8 // Bus number
	Address uint8 // Device number on the bus
	Speed   Speed // Negotiated bus speed

	Descriptor DeviceDescriptor
	Configs    []Config

	// Cached string descriptors; empty when not read.
	Manufacturer string
	Product      string
	SerialNumber string

	// SysfsPath is the device directory under /sys/bus/usb/devices.
	SysfsPath string
}

// Config is a configuration node owning the interfaces it describes.
type Config struct {
	Descriptor ConfigurationDescriptor
	Interfaces []Interface
}

// Interface is one interface setting (including alternate settings) owning
// its endpoints. Class-specific descriptors found between this interface
// and the next are retained raw in Extra.
type Interface struct {
	Descriptor InterfaceDescriptor
	Endpoints  []EndpointDescriptor
	Extra      [][]byte
}

// ID returns the "vvvv:pppp" vendor:product form of the device identity.
func (d *Device) ID() string {
	return fmt.Sprintf("%04x:%04x", d.Descriptor.VendorID, d.Descriptor.ProductID)
}

// BusAddress returns the "Bus BBB Device DDD" form of the device location.
func (d *Device) BusAddress() string {
	return fmt.Sprintf("Bus %03d Device %03d", d.Bus, d.Address)
}

// ActiveConfig returns the configuration with the given bConfigurationValue,
// or nil if the device does not carry it.
func (d *Device) ActiveConfig(value uint8) *Config {
	for i := range d.Configs {
		if d.Configs[i].Descriptor.ConfigurationValue == value {
			return &d.Configs[i]
		}
	}
	return nil
}

// Endpoint returns the endpoint with the given address anywhere in the
// tree, or nil if not found.
func (d *Device) Endpoint(address uint8) *EndpointDescriptor {
	for c := range d.Configs {
		for i := range d.Configs[c].Interfaces {
			eps := d.Configs[c].Interfaces[i].Endpoints
			for e := range eps {
				if eps[e].EndpointAddress == address {
					return &eps[e]
				}
			}
		}
	}
	return nil
}

// ParseConfigTree parses one configuration descriptor blob (the 9-byte
// header followed by interface, endpoint, and class-specific descriptors
// up to wTotalLength) into a Config tree.
//
// Unknown descriptor types are attached raw to the current interface. A
// truncated trailing descriptor ends the walk without error.
func ParseConfigTree(data []byte) (Config, error) {
	var cfg Config

	if err := ParseConfigurationDescriptor(data, &cfg.Descriptor); err != nil {
		return cfg, err
	}

	end := int(cfg.Descriptor.TotalLength)
	if end > len(data) {
		end = len(data)
	}

	offset := ConfigurationDescriptorSize
	for offset < end {
		if offset+2 > end {
			break
		}

		length := int(data[offset])
		descType := data[offset+1]

		if length < 2 || offset+length > end {
			break
		}

		switch descType {
		case DescriptorTypeInterface:
			var iface Interface
			if err := ParseInterfaceDescriptor(data[offset:], &iface.Descriptor); err == nil {
				cfg.Interfaces = append(cfg.Interfaces, iface)
			}

		case DescriptorTypeEndpoint:
			if n := len(cfg.Interfaces); n > 0 {
				var ep EndpointDescriptor
				if err := ParseEndpointDescriptor(data[offset:], &ep); err == nil {
					iface := &cfg.Interfaces[n-1]
					iface.Endpoints = append(iface.Endpoints, ep)
				}
			}

		default:
			// Class-specific or other descriptor
			if n := len(cfg.Interfaces); n > 0 {
				raw := make([]byte, length)
				copy(raw, data[offset:offset+length])
				iface := &cfg.Interfaces[n-1]
				iface.Extra = append(iface.Extra, raw)
			}
		}

		offset += length
	}

	return cfg, nil
}

// ParseDeviceTree parses the concatenated descriptor blob exposed by the
// kernel (device descriptor followed by every configuration blob) into the
// descriptor and configuration list of dev.
func ParseDeviceTree(data []byte, dev *Device) error {
	if err := ParseDeviceDescriptor(data, &dev.Descriptor); err != nil {
		return err
	}

	offset := DeviceDescriptorSize
	for offset+ConfigurationDescriptorSize <= len(data) {
		if data[offset+1] != DescriptorTypeConfiguration {
			break
		}
		cfg, err := ParseConfigTree(data[offset:])
		if err != nil {
			return err
		}
		dev.Configs = append(dev.Configs, cfg)

		total := int(cfg.Descriptor.TotalLength)
		if total < ConfigurationDescriptorSize {
			break
		}
		offset += total
	}

	if len(dev.Configs) == 0 && dev.Descriptor.NumConfigurations > 0 {
		return pkg.ErrDescriptorTooShort
	}
	return nil
}

// DecodeUTF16String decodes a USB string descriptor payload (UTF-16LE with
// a 2-byte header) to a Go string. A trailing odd byte is ignored.
func DecodeUTF16String(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	length := int(data[0])
	if length > len(data) {
		length = len(data)
	}
	if length < 2 {
		return ""
	}

	units := make([]uint16, 0, (length-2)/2)
	for i := 2; i+1 < length; i += 2 {
		units = append(units, binary.LittleEndian.Uint16(data[i:]))
	}
	return string(utf16.Decode(units))
}
