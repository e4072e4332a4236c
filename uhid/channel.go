package uhid

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultPath is the well-known location of the uhid character device.
const DefaultPath = "/dev/uhid"

// FrameLogger receives raw frames as they cross the channel. in is true
// for frames read from the kernel, false for frames written to it.
type FrameLogger interface {
	Log(in bool, data []byte)
}

// Channel is an exclusively-owned bidirectional handle on the uhid
// character device. All transfers are whole frames of EventSize bytes.
type Channel struct {
	fd     int
	path   string
	closed bool

	// Frames, when set, is fed every raw frame in both directions.
	Frames FrameLogger
}

// OpenChannel opens the uhid character device at path.
func OpenChannel(path string) (*Channel, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrChannelOpen, path, err)
	}
	return &Channel{fd: fd, path: path}, nil
}

// NewChannel wraps an already-open uhid descriptor, e.g. one inherited
// from a supervisor. The channel takes ownership of fd.
func NewChannel(fd int) *Channel {
	return &Channel{fd: fd, path: fmt.Sprintf("fd:%d", fd)}
}

// Fd exposes the descriptor for readiness waits.
func (c *Channel) Fd() int { return c.fd }

// Path returns the endpoint the channel was opened against.
func (c *Channel) Path() string { return c.path }

// WriteEvent encodes ev and writes it as a single full frame. A
// transfer of any other size is ErrChannelWrite; no retry is attempted.
func (c *Channel) WriteEvent(ev Event) error {
	buf, err := Encode(ev)
	if err != nil {
		return err
	}
	n, err := unix.Write(c.fd, buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelWrite, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrChannelWrite, n, len(buf))
	}
	if c.Frames != nil {
		c.Frames.Log(false, buf)
	}
	return nil
}

// ReadEvent reads and decodes one full frame. A zero-length read means
// the kernel closed the device (ErrChannelClosed); a partial read is
// ErrChannelRead.
func (c *Channel) ReadEvent() (Event, error) {
	buf := make([]byte, EventSize)
	n, err := unix.Read(c.fd, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelRead, err)
	}
	if n == 0 {
		return nil, ErrChannelClosed
	}
	if n != EventSize {
		return nil, fmt.Errorf("%w: read %d of %d bytes", ErrChannelRead, n, EventSize)
	}
	if c.Frames != nil {
		c.Frames.Log(true, buf)
	}
	return Decode(buf)
}

// Close releases the descriptor. Safe to call more than once.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}
