// Package session owns one virtual-device lifetime: it registers the
// device, runs the event loop over the command source and the device
// channel, and tears the device down on every exit path.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/virthid/softmouse/device/mouse"
	"github.com/virthid/softmouse/uhid"
)

// State tracks the session lifecycle. A session is not reusable: no
// state is revisited after Closed.
type State int

const (
	// Created: channel open, device not yet registered.
	Created State = iota
	// Running: create acknowledged by a successful write, loop active.
	Running
	// Terminating: a shutdown condition was observed, destroy pending.
	Terminating
	// Closed: destroy attempted, channel released. Terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Transport is the device-channel surface the session needs.
// *uhid.Channel implements it.
type Transport interface {
	WriteEvent(uhid.Event) error
	ReadEvent() (uhid.Event, error)
	Fd() int
	Close() error
}

// Motion pulse magnitudes per command keystroke.
const (
	moveStep  = 20
	wheelStep = 1
)

// Session drives one virtual mouse over a device channel. All state is
// owned by the single goroutine running the loop; there is no locking.
type Session struct {
	ch     Transport
	cmdFd  int
	ident  mouse.Identity
	rdesc  []byte
	logger *slog.Logger

	state State
	input mouse.InputState
}

// New returns a session in the Created state. cmdFd is the readable
// descriptor the single-character commands arrive on, typically stdin.
func New(ch Transport, cmdFd int, ident mouse.Identity, descriptor []byte, logger *slog.Logger) *Session {
	return &Session{
		ch:     ch,
		cmdFd:  cmdFd,
		ident:  ident,
		rdesc:  descriptor,
		logger: logger,
		state:  Created,
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// Start registers the device with the kernel HID stack. On failure the
// session stays in Created and the caller should abort startup.
func (s *Session) Start() error {
	if s.state != Created {
		return fmt.Errorf("session already started (state %s)", s.state)
	}
	err := s.ch.WriteEvent(uhid.Create2{
		Name:       s.ident.Name,
		Phys:       s.ident.Phys,
		Uniq:       s.ident.Uniq,
		Bus:        s.ident.Bus,
		Vendor:     s.ident.Vendor,
		Product:    s.ident.Product,
		Version:    s.ident.Version,
		Country:    s.ident.Country,
		Descriptor: s.rdesc,
	})
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	s.state = Running
	s.logger.Info("device registered", "name", s.ident.Name,
		"vendor", fmt.Sprintf("%#04x", s.ident.Vendor),
		"product", fmt.Sprintf("%#04x", s.ident.Product))
	return nil
}

// Run blocks in the event loop until a shutdown condition, then sends
// Destroy best-effort and releases the channel. It returns nil for a
// clean quit or peer close and the causing error for unexpected I/O
// failures; teardown happens in every case.
func (s *Session) Run() error {
	if s.state != Running {
		return fmt.Errorf("session is not running (state %s)", s.state)
	}
	defer s.terminate()

	fds := make([]unix.PollFd, 2)
	var cause error
	for s.state == Running {
		fds[0] = unix.PollFd{Fd: int32(s.cmdFd), Events: unix.POLLIN}
		fds[1] = unix.PollFd{Fd: int32(s.ch.Fd()), Events: unix.POLLIN}

		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.logger.Error("cannot poll sources", "error", err)
			cause = err
			break
		}

		if fds[0].Revents&unix.POLLHUP != 0 {
			s.logger.Info("command source hung up")
			break
		}
		if fds[1].Revents&unix.POLLHUP != 0 {
			s.logger.Info("device channel hung up")
			break
		}

		// Fixed priority: user commands before kernel notifications.
		if fds[0].Revents&unix.POLLIN != 0 {
			s.processCommands()
		}
		if s.state == Running && fds[1].Revents&unix.POLLIN != 0 {
			s.readDevice()
		}
	}
	return cause
}

// terminate sends Destroy best-effort and releases the channel. It runs
// at most once; the session is Closed afterwards.
func (s *Session) terminate() {
	if s.state == Closed {
		return
	}
	s.state = Terminating
	if err := s.ch.WriteEvent(uhid.Destroy{}); err != nil {
		s.logger.Warn("cannot send destroy", "error", err)
	}
	if err := s.ch.Close(); err != nil {
		s.logger.Warn("cannot close device channel", "error", err)
	}
	s.state = Closed
	s.logger.Info("device destroyed")
}

// processCommands drains one batch of command bytes and applies them in
// order. A quit command stops processing the remainder of the batch.
func (s *Session) processCommands() {
	var buf [128]byte
	n, err := unix.Read(s.cmdFd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return
		}
		s.logger.Error("cannot read command source", "error", err)
		s.state = Terminating
		return
	}
	if n == 0 {
		s.logger.Info("command source closed")
		s.state = Terminating
		return
	}
	for _, b := range buf[:n] {
		if s.state != Running {
			break
		}
		s.handleCommand(b)
	}
}

// handleCommand applies one command byte. Toggles flip a button, motion
// and wheel commands are one-report pulses, q quits. Anything else is
// logged and ignored.
func (s *Session) handleCommand(b byte) {
	switch b {
	case '1':
		s.input.Btn1 = !s.input.Btn1
		s.sendInput()
	case '2':
		s.input.Btn2 = !s.input.Btn2
		s.sendInput()
	case '3':
		s.input.Btn3 = !s.input.Btn3
		s.sendInput()
	case 'a':
		s.input.DX = -moveStep
		s.sendInput()
	case 'd':
		s.input.DX = moveStep
		s.sendInput()
	case 'w':
		s.input.DY = -moveStep
		s.sendInput()
	case 's':
		s.input.DY = moveStep
		s.sendInput()
	case 'r':
		s.input.Wheel = wheelStep
		s.sendInput()
	case 'f':
		s.input.Wheel = -wheelStep
		s.sendInput()
	case 'q':
		s.logger.Info("quit requested")
		s.state = Terminating
	default:
		s.logger.Info("invalid input", "key", string(rune(b)))
	}
}

// sendInput encodes the current state into one input report and sends
// it. The deltas are consumed whether or not the write succeeds, so
// every motion command stays a one-shot pulse.
func (s *Session) sendInput() {
	report := s.input.BuildReport()
	err := s.ch.WriteEvent(uhid.Input2{Data: report[:]})
	s.input.ConsumeDeltas()
	if err != nil {
		s.logger.Error("cannot send input report", "error", err)
		s.state = Terminating
	}
}

// readDevice consumes one kernel event. Decode failures on inbound
// traffic are logged and skipped; transfer failures end the session.
func (s *Session) readDevice() {
	ev, err := s.ch.ReadEvent()
	if err != nil {
		switch {
		case errors.Is(err, uhid.ErrChannelClosed):
			s.logger.Info("device channel closed by kernel")
			s.state = Terminating
		case errors.Is(err, uhid.ErrUnknownEventType), errors.Is(err, uhid.ErrMalformedFrame):
			s.logger.Warn("ignoring undecodable event", "error", err)
		default:
			s.logger.Error("cannot read device channel", "error", err)
			s.state = Terminating
		}
		return
	}
	s.handleEvent(ev)
}

// handleEvent reacts to one decoded kernel notification.
func (s *Session) handleEvent(ev uhid.Event) {
	switch e := ev.(type) {
	case uhid.Start:
		s.logger.Info("kernel started device", "dev_flags", e.DevFlags)
	case uhid.Stop:
		s.logger.Info("kernel stopped device")
	case uhid.Open:
		s.logger.Info("consumer opened device")
	case uhid.Close:
		s.logger.Info("last consumer closed device")
	case uhid.Output:
		s.logger.Info("output report from kernel",
			"rtype", e.RType, "len", len(e.Data), "data", fmt.Sprintf("% x", e.Data))
	case uhid.OutputEV:
		s.logger.Info("legacy output event from kernel")
	case uhid.GetReport:
		s.replyGetReport(e)
	case uhid.SetReport:
		// The mouse exposes no settable reports.
		s.reply(uhid.SetReportReply{ID: e.ID, Err: uint16(unix.EIO)})
	default:
		s.logger.Warn("unhandled event from kernel", "type", ev.Type())
	}
}

// replyGetReport answers a report query with the current input report,
// or EIO for report types the mouse does not have.
func (s *Session) replyGetReport(req uhid.GetReport) {
	reply := uhid.GetReportReply{ID: req.ID}
	if req.RType == uhid.ReportTypeInput {
		report := s.input.BuildReport()
		reply.Data = report[:]
	} else {
		reply.Err = uint16(unix.EIO)
	}
	s.reply(reply)
}

func (s *Session) reply(ev uhid.Event) {
	if err := s.ch.WriteEvent(ev); err != nil {
		s.logger.Error("cannot send reply", "type", ev.Type(), "error", err)
		s.state = Terminating
	}
}
