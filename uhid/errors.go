package uhid

import "errors"

// Codec errors.
var (
	// ErrNameTooLong is returned when a device name does not fit the
	// fixed create2 name field including its terminating NUL.
	ErrNameTooLong = errors.New("uhid: device name too long")

	// ErrPhysTooLong is returned when the physical location string does
	// not fit its fixed field.
	ErrPhysTooLong = errors.New("uhid: phys string too long")

	// ErrUniqTooLong is returned when the unique identifier string does
	// not fit its fixed field.
	ErrUniqTooLong = errors.New("uhid: uniq string too long")

	// ErrDescriptorTooLong is returned when a report descriptor exceeds
	// HID_MAX_DESCRIPTOR_SIZE.
	ErrDescriptorTooLong = errors.New("uhid: report descriptor too long")

	// ErrReportTooLong is returned when a report payload exceeds
	// UHID_DATA_MAX.
	ErrReportTooLong = errors.New("uhid: report too long")

	// ErrMalformedFrame is returned when a frame is not exactly
	// EventSize bytes or declares an impossible payload size.
	ErrMalformedFrame = errors.New("uhid: malformed frame")

	// ErrUnknownEventType is returned for tags the codec does not
	// handle. Inbound, callers should log and carry on; the kernel may
	// grow new notification kinds.
	ErrUnknownEventType = errors.New("uhid: unknown event type")
)

// Channel errors.
var (
	// ErrChannelOpen is returned when the uhid character device cannot
	// be opened.
	ErrChannelOpen = errors.New("uhid: cannot open channel")

	// ErrChannelWrite is returned when a frame write transfers fewer or
	// more bytes than the frame size, or fails outright.
	ErrChannelWrite = errors.New("uhid: channel write failed")

	// ErrChannelRead is returned on a short or failed frame read.
	ErrChannelRead = errors.New("uhid: channel read failed")

	// ErrChannelClosed is returned when the kernel end of the channel
	// signals end-of-stream.
	ErrChannelClosed = errors.New("uhid: channel closed by peer")
)
