// Package uhid implements the frame codec and device channel for the
// Linux uhid character device (the kernel's user-space HID transport).
package uhid

import (
	"encoding/binary"
	"fmt"
)

// Wire constants. uhid is a native-endian kernel ABI; every architecture
// this program targets is little-endian, so the codec hardcodes it.
const (
	// Event type tags (uhid_event_type)
	TypeDestroy        = 1
	TypeStart          = 2
	TypeStop           = 3
	TypeOpen           = 4
	TypeClose          = 5
	TypeOutput         = 6
	TypeOutputEV       = 7 // legacy, only delivered to legacy-created devices
	TypeGetReport      = 9
	TypeGetReportReply = 10
	TypeCreate2        = 11
	TypeInput2         = 12
	TypeSetReport      = 13
	TypeSetReportReply = 14

	// Report types (uhid_report_type)
	ReportTypeFeature = 0
	ReportTypeOutput  = 1
	ReportTypeInput   = 2

	// Field capacities (uhid.h)
	NameMax       = 128
	PhysMax       = 64
	UniqMax       = 64
	DataMax       = 4096 // UHID_DATA_MAX
	DescriptorMax = 4096 // HID_MAX_DESCRIPTOR_SIZE

	// create2 payload field offsets, relative to the frame start.
	// The kernel structs are packed; the union payload begins at byte 4.
	offName    = 4
	offPhys    = offName + NameMax
	offUniq    = offPhys + PhysMax
	offRdSize  = offUniq + UniqMax
	offBus     = offRdSize + 2
	offVendor  = offBus + 2
	offProduct = offVendor + 4
	offVersion = offProduct + 4
	offCountry = offVersion + 4
	offRdData  = offCountry + 4

	// EventSize is the exact size of every frame in both directions:
	// the u32 tag plus the union, which is sized by create2 (its largest
	// member).
	EventSize = offRdData + DescriptorMax
)

// Event is one uhid frame, either a request this program emits or a
// notification the kernel delivers.
type Event interface {
	// Type returns the frame's u32 tag value.
	Type() uint32
}

// Create2 registers the virtual device with the kernel HID stack. It
// carries the device identity and the raw report descriptor inline.
type Create2 struct {
	Name       string
	Phys       string
	Uniq       string
	Bus        uint16
	Vendor     uint32
	Product    uint32
	Version    uint32
	Country    uint32
	Descriptor []byte
}

// Destroy unregisters the device. Sent exactly once per session.
type Destroy struct{}

// Input2 carries one input report to the kernel.
type Input2 struct {
	Data []byte
}

// Start is delivered once the kernel has set up the device.
type Start struct {
	DevFlags uint64
}

// Stop is delivered when the kernel tears the device down.
type Stop struct{}

// Open is delivered when the first consumer opens the device.
type Open struct{}

// Close is delivered when the last consumer releases the device.
type Close struct{}

// Output carries an output report from the kernel (e.g. LED state).
type Output struct {
	Data  []byte
	RType uint8
}

// OutputEV is the legacy input-subsystem output notification. The kernel
// only sends it to devices created through the legacy request, but the
// decoder recognizes it so inbound traffic never trips the unknown-tag
// path for a documented kind.
type OutputEV struct{}

// GetReport asks the device for the current value of a report.
type GetReport struct {
	ID    uint32
	RNum  uint8
	RType uint8
}

// GetReportReply answers a GetReport. Err is an errno value, 0 on success.
type GetReportReply struct {
	ID   uint32
	Err  uint16
	Data []byte
}

// SetReport pushes a report value to the device.
type SetReport struct {
	ID    uint32
	RNum  uint8
	RType uint8
	Data  []byte
}

// SetReportReply answers a SetReport.
type SetReportReply struct {
	ID  uint32
	Err uint16
}

func (Create2) Type() uint32        { return TypeCreate2 }
func (Destroy) Type() uint32        { return TypeDestroy }
func (Input2) Type() uint32         { return TypeInput2 }
func (Start) Type() uint32          { return TypeStart }
func (Stop) Type() uint32           { return TypeStop }
func (Open) Type() uint32           { return TypeOpen }
func (Close) Type() uint32          { return TypeClose }
func (Output) Type() uint32         { return TypeOutput }
func (OutputEV) Type() uint32       { return TypeOutputEV }
func (GetReport) Type() uint32      { return TypeGetReport }
func (GetReportReply) Type() uint32 { return TypeGetReportReply }
func (SetReport) Type() uint32      { return TypeSetReport }
func (SetReportReply) Type() uint32 { return TypeSetReportReply }

// putFixedString copies s into dst and zero-fills the remainder. The
// caller must have validated len(s) < len(dst) so the field keeps its
// terminating NUL.
func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func fixedString(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

// Encode serializes ev into a full EventSize frame. Unused payload
// bytes are zero.
func Encode(ev Event) ([]byte, error) {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint32(buf[0:4], ev.Type())

	switch e := ev.(type) {
	case Create2:
		if len(e.Name) >= NameMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrNameTooLong, len(e.Name), NameMax-1)
		}
		if len(e.Phys) >= PhysMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPhysTooLong, len(e.Phys), PhysMax-1)
		}
		if len(e.Uniq) >= UniqMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrUniqTooLong, len(e.Uniq), UniqMax-1)
		}
		if len(e.Descriptor) > DescriptorMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrDescriptorTooLong, len(e.Descriptor), DescriptorMax)
		}
		putFixedString(buf[offName:offPhys], e.Name)
		putFixedString(buf[offPhys:offUniq], e.Phys)
		putFixedString(buf[offUniq:offRdSize], e.Uniq)
		binary.LittleEndian.PutUint16(buf[offRdSize:], uint16(len(e.Descriptor)))
		binary.LittleEndian.PutUint16(buf[offBus:], e.Bus)
		binary.LittleEndian.PutUint32(buf[offVendor:], e.Vendor)
		binary.LittleEndian.PutUint32(buf[offProduct:], e.Product)
		binary.LittleEndian.PutUint32(buf[offVersion:], e.Version)
		binary.LittleEndian.PutUint32(buf[offCountry:], e.Country)
		copy(buf[offRdData:], e.Descriptor)

	case Input2:
		if len(e.Data) > DataMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrReportTooLong, len(e.Data), DataMax)
		}
		binary.LittleEndian.PutUint16(buf[4:], uint16(len(e.Data)))
		copy(buf[6:], e.Data)

	case Output:
		if len(e.Data) > DataMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrReportTooLong, len(e.Data), DataMax)
		}
		copy(buf[4:], e.Data)
		binary.LittleEndian.PutUint16(buf[4+DataMax:], uint16(len(e.Data)))
		buf[4+DataMax+2] = e.RType

	case Start:
		binary.LittleEndian.PutUint64(buf[4:], e.DevFlags)

	case GetReport:
		binary.LittleEndian.PutUint32(buf[4:], e.ID)
		buf[8] = e.RNum
		buf[9] = e.RType

	case GetReportReply:
		if len(e.Data) > DataMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrReportTooLong, len(e.Data), DataMax)
		}
		binary.LittleEndian.PutUint32(buf[4:], e.ID)
		binary.LittleEndian.PutUint16(buf[8:], e.Err)
		binary.LittleEndian.PutUint16(buf[10:], uint16(len(e.Data)))
		copy(buf[12:], e.Data)

	case SetReport:
		if len(e.Data) > DataMax {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrReportTooLong, len(e.Data), DataMax)
		}
		binary.LittleEndian.PutUint32(buf[4:], e.ID)
		buf[8] = e.RNum
		buf[9] = e.RType
		binary.LittleEndian.PutUint16(buf[10:], uint16(len(e.Data)))
		copy(buf[12:], e.Data)

	case SetReportReply:
		binary.LittleEndian.PutUint32(buf[4:], e.ID)
		binary.LittleEndian.PutUint16(buf[8:], e.Err)

	case Destroy, Stop, Open, Close, OutputEV:
		// tag only

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEventType, ev)
	}
	return buf, nil
}

// Decode parses a full frame into its Event. The frame must be exactly
// EventSize bytes; anything else is ErrMalformedFrame.
func Decode(buf []byte) (Event, error) {
	if len(buf) != EventSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrMalformedFrame, len(buf), EventSize)
	}
	tag := binary.LittleEndian.Uint32(buf[0:4])

	switch tag {
	case TypeDestroy:
		return Destroy{}, nil
	case TypeStart:
		return Start{DevFlags: binary.LittleEndian.Uint64(buf[4:])}, nil
	case TypeStop:
		return Stop{}, nil
	case TypeOpen:
		return Open{}, nil
	case TypeClose:
		return Close{}, nil
	case TypeOutputEV:
		return OutputEV{}, nil

	case TypeOutput:
		size := binary.LittleEndian.Uint16(buf[4+DataMax:])
		if int(size) > DataMax {
			return nil, fmt.Errorf("%w: output size %d exceeds %d", ErrMalformedFrame, size, DataMax)
		}
		data := make([]byte, size)
		copy(data, buf[4:4+size])
		return Output{Data: data, RType: buf[4+DataMax+2]}, nil

	case TypeGetReport:
		return GetReport{
			ID:    binary.LittleEndian.Uint32(buf[4:]),
			RNum:  buf[8],
			RType: buf[9],
		}, nil

	case TypeGetReportReply:
		size := binary.LittleEndian.Uint16(buf[10:])
		if int(size) > DataMax {
			return nil, fmt.Errorf("%w: report size %d exceeds %d", ErrMalformedFrame, size, DataMax)
		}
		data := make([]byte, size)
		copy(data, buf[12:12+size])
		return GetReportReply{
			ID:   binary.LittleEndian.Uint32(buf[4:]),
			Err:  binary.LittleEndian.Uint16(buf[8:]),
			Data: data,
		}, nil

	case TypeCreate2:
		rdSize := binary.LittleEndian.Uint16(buf[offRdSize:])
		if int(rdSize) > DescriptorMax {
			return nil, fmt.Errorf("%w: descriptor size %d exceeds %d", ErrMalformedFrame, rdSize, DescriptorMax)
		}
		desc := make([]byte, rdSize)
		copy(desc, buf[offRdData:offRdData+int(rdSize)])
		return Create2{
			Name:       fixedString(buf[offName:offPhys]),
			Phys:       fixedString(buf[offPhys:offUniq]),
			Uniq:       fixedString(buf[offUniq:offRdSize]),
			Bus:        binary.LittleEndian.Uint16(buf[offBus:]),
			Vendor:     binary.LittleEndian.Uint32(buf[offVendor:]),
			Product:    binary.LittleEndian.Uint32(buf[offProduct:]),
			Version:    binary.LittleEndian.Uint32(buf[offVersion:]),
			Country:    binary.LittleEndian.Uint32(buf[offCountry:]),
			Descriptor: desc,
		}, nil

	case TypeInput2:
		size := binary.LittleEndian.Uint16(buf[4:])
		if int(size) > DataMax {
			return nil, fmt.Errorf("%w: report size %d exceeds %d", ErrMalformedFrame, size, DataMax)
		}
		data := make([]byte, size)
		copy(data, buf[6:6+size])
		return Input2{Data: data}, nil

	case TypeSetReport:
		size := binary.LittleEndian.Uint16(buf[10:])
		if int(size) > DataMax {
			return nil, fmt.Errorf("%w: report size %d exceeds %d", ErrMalformedFrame, size, DataMax)
		}
		data := make([]byte, size)
		copy(data, buf[12:12+size])
		return SetReport{
			ID:    binary.LittleEndian.Uint32(buf[4:]),
			RNum:  buf[8],
			RType: buf[9],
			Data:  data,
		}, nil

	case TypeSetReportReply:
		return SetReportReply{
			ID:  binary.LittleEndian.Uint32(buf[4:]),
			Err: binary.LittleEndian.Uint16(buf[8:]),
		}, nil
	}

	return nil, fmt.Errorf("%w: tag %d", ErrUnknownEventType, tag)
}
