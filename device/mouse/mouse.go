// Package mouse describes the emulated 3-button wheel mouse: its static
// report descriptor, its identity, and the input report encoding.
package mouse

// Bus type values (linux/input.h) accepted in the device identity.
const (
	BusUSB       = 0x03
	BusBluetooth = 0x05
	BusVirtual   = 0x06
)

// Identity is the device identity registered with the host HID stack.
// Set once at session start, invariant afterwards.
type Identity struct {
	Name    string
	Phys    string
	Uniq    string
	Bus     uint16
	Vendor  uint32
	Product uint32
	Version uint32
	Country uint32
}

// DefaultIdentity returns the identity the device registers with unless
// overridden on the command line.
func DefaultIdentity() Identity {
	return Identity{
		Name:    "softmouse",
		Bus:     BusUSB,
		Vendor:  0x15d9,
		Product: 0x0a37,
	}
}

// ReportDescriptor is the HID report descriptor for a 3-button mouse
// with a wheel. The kernel parses it as one input report: three 1-bit
// absolute button fields plus 5 bits padding, then X, Y and Wheel as
// signed 8-bit relative fields. The session transports it as an opaque
// blob.
var ReportDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (Pointer)
	0xA1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (Button 1)
	0x29, 0x03, //     Usage Maximum (Button 3)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x03, //     Report Count (3)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x05, //     Report Size (5)
	0x81, 0x01, //     Input - padding
	0x05, 0x01, //     Usage Page (Generic Desktop)
	0x09, 0x30, //     Usage (X)
	0x09, 0x31, //     Usage (Y)
	0x09, 0x38, //     Usage (Wheel)
	0x15, 0x80, //     Logical Minimum (-128)
	0x25, 0x7F, //     Logical Maximum (127)
	0x75, 0x08, //     Report Size (8)
	0x95, 0x03, //     Report Count (3)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0xC0, //   End Collection
	0xC0, // End Collection
}
