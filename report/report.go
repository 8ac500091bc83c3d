package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ardnew/ch341/usb"
	"github.com/ardnew/ch341/usb/usbid"
)

// Renderer writes descriptor reports for device snapshots.
type Renderer struct {
	w   io.Writer
	ids *usbid.Database
}

// New creates a renderer writing to w. The ID database annotates vendor
// and product fields; it may be nil.
func New(w io.Writer, ids *usbid.Database) *Renderer {
	return &Renderer{w: w, ids: ids}
}

// vendorName returns the database name of a vendor ID, or "".
func (r *Renderer) vendorName(vid uint16) string {
	if r.ids == nil {
		return ""
	}
	return r.ids.LookupVendor(vid)
}

// productName returns the database name of a product ID, or "".
func (r *Renderer) productName(vid, pid uint16) string {
	if r.ids == nil {
		return ""
	}
	return r.ids.LookupProduct(vid, pid)
}

// Summary writes the one-line device summary:
//
//	Bus 001 Device 005: ID 1a86:5512 QinHeng Electronics CH341 ...
//
// Device-reported strings are preferred over database names.
func (r *Renderer) Summary(dev *usb.Device) {
	vendor := dev.Manufacturer
	if vendor == "" {
		vendor = r.vendorName(dev.Descriptor.VendorID)
	}
	product := dev.Product
	if product == "" {
		product = r.productName(dev.Descriptor.VendorID, dev.Descriptor.ProductID)
	}

	line := fmt.Sprintf("%s: ID %s", dev.BusAddress(), dev.ID())
	if vendor != "" {
		line += " " + vendor
	}
	if product != "" {
		line += " " + product
	}
	fmt.Fprintln(r.w, line)
}

// Table writes the device list as a table.
func (r *Renderer) Table(devices []*usb.Device) {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"Bus", "Addr", "ID", "Class", "Vendor", "Product"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, dev := range devices {
		vendor := dev.Manufacturer
		if vendor == "" {
			vendor = r.vendorName(dev.Descriptor.VendorID)
		}
		product := dev.Product
		if product == "" {
			product = r.productName(dev.Descriptor.VendorID, dev.Descriptor.ProductID)
		}

		table.Append([]string{
			fmt.Sprintf("%03d", dev.Bus),
			fmt.Sprintf("%03d", dev.Address),
			dev.ID(),
			usb.ClassName(dev.Descriptor.DeviceClass),
			vendor,
			product,
		})
	}

	table.Render()
}

// Device writes the full descriptor report: the summary line followed by
// every descriptor field at its tree depth.
func (r *Renderer) Device(dev *usb.Device) {
	r.Summary(dev)
	r.deviceDescriptor(dev)
	for i := range dev.Configs {
		r.config(&dev.Configs[i], 1)
	}
}

// deviceDescriptor writes the 18-byte device descriptor fields.
func (r *Renderer) deviceDescriptor(dev *usb.Device) {
	d := &dev.Descriptor

	r.section(0, "Device Descriptor:")
	r.row(1, "bLength", dec(d.Length), "")
	r.row(1, "bDescriptorType", dec(d.DescriptorType), "")
	r.row(1, "bcdUSB", d.USBVersion.String(), "")
	r.row(1, "bDeviceClass", dec(d.DeviceClass), usb.ClassName(d.DeviceClass))
	r.row(1, "bDeviceSubClass", dec(d.DeviceSubClass), "")
	r.row(1, "bDeviceProtocol", dec(d.DeviceProtocol), "")
	r.row(1, "bMaxPacketSize0", dec(d.MaxPacketSize0), "")
	r.row(1, "idVendor", hex16(d.VendorID), r.vendorName(d.VendorID))
	r.row(1, "idProduct", hex16(d.ProductID), r.productName(d.VendorID, d.ProductID))
	r.row(1, "bcdDevice", d.DeviceVersion.String(), "")
	r.row(1, "iManufacturer", dec(d.ManufacturerIndex), dev.Manufacturer)
	r.row(1, "iProduct", dec(d.ProductIndex), dev.Product)
	r.row(1, "iSerialNumber", dec(d.SerialNumberIndex), dev.SerialNumber)
	r.row(1, "bNumConfigurations", dec(d.NumConfigurations), "")
}

// config writes one configuration subtree.
func (r *Renderer) config(cfg *usb.Config, depth int) {
	c := &cfg.Descriptor

	r.section(depth, "Configuration Descriptor:")
	r.row(depth+1, "bLength", dec(c.Length), "")
	r.row(depth+1, "bDescriptorType", dec(c.DescriptorType), "")
	r.row(depth+1, "wTotalLength", hex16(c.TotalLength), "")
	r.row(depth+1, "bNumInterfaces", dec(c.NumInterfaces), "")
	r.row(depth+1, "bConfigurationValue", dec(c.ConfigurationValue), "")
	r.row(depth+1, "iConfiguration", dec(c.ConfigurationIndex), "")
	r.row(depth+1, "bmAttributes", hex8(c.Attributes), powerAttributes(c))
	r.row(depth+1, "MaxPower", strconv.Itoa(c.MaxPowerMilliAmps())+"mA", "")

	for i := range cfg.Interfaces {
		r.iface(&cfg.Interfaces[i], depth+1)
	}
}

// iface writes one interface subtree.
func (r *Renderer) iface(iface *usb.Interface, depth int) {
	i := &iface.Descriptor

	r.section(depth, "Interface Descriptor:")
	r.row(depth+1, "bLength", dec(i.Length), "")
	r.row(depth+1, "bDescriptorType", dec(i.DescriptorType), "")
	r.row(depth+1, "bInterfaceNumber", dec(i.InterfaceNumber), "")
	r.row(depth+1, "bAlternateSetting", dec(i.AlternateSetting), "")
	r.row(depth+1, "bNumEndpoints", dec(i.NumEndpoints), "")
	r.row(depth+1, "bInterfaceClass", dec(i.InterfaceClass), usb.ClassName(i.InterfaceClass))
	r.row(depth+1, "bInterfaceSubClass", dec(i.InterfaceSubClass), "")
	r.row(depth+1, "bInterfaceProtocol", dec(i.InterfaceProtocol), "")
	r.row(depth+1, "iInterface", dec(i.InterfaceIndex), "")

	for e := range iface.Endpoints {
		r.endpoint(&iface.Endpoints[e], depth+1)
	}
}

// endpoint writes one endpoint descriptor.
func (r *Renderer) endpoint(ep *usb.EndpointDescriptor, depth int) {
	r.section(depth, "Endpoint Descriptor:")
	r.row(depth+1, "bLength", dec(ep.Length), "")
	r.row(depth+1, "bDescriptorType", dec(ep.DescriptorType), "")
	r.row(depth+1, "bEndpointAddress", hex8(ep.EndpointAddress),
		fmt.Sprintf("EP %d %s", ep.Number(), ep.Direction()))
	r.row(depth+1, "bmAttributes", hex8(ep.Attributes), ep.TransferType().String())
	r.row(depth+1, "wMaxPacketSize", hex16(ep.MaxPacketSize),
		fmt.Sprintf("%d bytes", ep.MaxPacketSize))
	r.row(depth+1, "bInterval", dec(ep.Interval), "")
}

// fieldWidth aligns field names; valueWidth right-aligns values.
const (
	fieldWidth = 20
	valueWidth = 8
)

// section writes a nesting header line.
func (r *Renderer) section(depth int, title string) {
	fmt.Fprintf(r.w, "%s%s\n", indent(depth), title)
}

// row writes one report row: field name, fixed-width value, optional
// annotation.
func (r *Renderer) row(depth int, name, value, annotation string) {
	line := fmt.Sprintf("%s%-*s %*s", indent(depth), fieldWidth, name, valueWidth, value)
	if annotation != "" {
		line += "  " + annotation
	}
	fmt.Fprintln(r.w, strings.TrimRight(line, " "))
}

// indent returns the whitespace prefix for a tree depth.
func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// powerAttributes annotates the bmAttributes power bits.
func powerAttributes(c *usb.ConfigurationDescriptor) string {
	attrs := []string{"Bus Powered"}
	if c.SelfPowered() {
		attrs[0] = "Self Powered"
	}
	if c.RemoteWakeup() {
		attrs = append(attrs, "Remote Wakeup")
	}
	return strings.Join(attrs, ", ")
}

// dec formats an integer value in decimal.
func dec[T uint8 | uint16](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

// hex8 formats a byte as 0xNN.
func hex8(v uint8) string {
	return fmt.Sprintf("0x%02x", v)
}

// hex16 formats a 16-bit value as 0xNNNN.
func hex16(v uint16) string {
	return fmt.Sprintf("0x%04x", v)
}
