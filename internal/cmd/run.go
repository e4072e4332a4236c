package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/virthid/softmouse/device/mouse"
	"github.com/virthid/softmouse/internal/log"
	"github.com/virthid/softmouse/internal/session"
	"github.com/virthid/softmouse/uhid"
)

// Run registers the virtual mouse and drives it from the terminal.
type Run struct {
	Path string `arg:"" optional:"" default:"/dev/uhid" help:"uhid character device path"`

	Name    string `help:"Device name registered with the kernel" default:"softmouse" env:"SOFTMOUSE_NAME"`
	Phys    string `help:"Physical location string" default:""`
	Uniq    string `help:"Unique identifier (serial) string" default:""`
	Bus     uint16 `help:"Bus type (3=USB, 5=Bluetooth, 6=virtual)" default:"3"`
	Vendor  string `help:"Vendor id" default:"0x15d9"`
	Product string `help:"Product id" default:"0x0a37"`
	Version uint32 `help:"Device version" default:"0"`
	Country uint32 `help:"HID country code" default:"0"`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ident, err := r.identity()
	if err != nil {
		return err
	}

	restore, err := rawCommandInput(int(os.Stdin.Fd()))
	if err != nil {
		// Commands still work line-buffered; not fatal.
		logger.Warn("cannot configure terminal", "error", err)
	} else {
		defer restore()
	}

	logger.Info("opening uhid channel", "path", r.Path)
	ch, err := uhid.OpenChannel(r.Path)
	if err != nil {
		return err
	}
	ch.Frames = rawLogger

	sess := session.New(ch, int(os.Stdin.Fd()), ident, mouse.ReportDescriptor, logger)
	if err := sess.Start(); err != nil {
		_ = ch.Close()
		return err
	}

	logger.Info("press 1/2/3 to toggle buttons, wasd to move, r/f to scroll, q to quit")
	return sess.Run()
}

func (r *Run) identity() (mouse.Identity, error) {
	ident := mouse.DefaultIdentity()
	ident.Name = r.Name
	ident.Phys = r.Phys
	ident.Uniq = r.Uniq
	ident.Bus = r.Bus
	ident.Version = r.Version
	ident.Country = r.Country

	vendor, err := strconv.ParseUint(r.Vendor, 0, 16)
	if err != nil {
		return ident, fmt.Errorf("invalid vendor id %q: %w", r.Vendor, err)
	}
	product, err := strconv.ParseUint(r.Product, 0, 16)
	if err != nil {
		return ident, fmt.Errorf("invalid product id %q: %w", r.Product, err)
	}
	ident.Vendor = uint32(vendor)
	ident.Product = uint32(product)
	return ident, nil
}

// rawCommandInput switches the terminal on fd to non-canonical mode so
// single keystrokes reach the session without a newline. Echo and
// signal handling stay on. Returns a restore func for the old state.
func rawCommandInput(fd int) (func(), error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("fd %d is not a terminal", fd)
	}
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	raw := *old
	raw.Lflag &^= unix.ICANON
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	return func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, old)
	}, nil
}
