package mouse

// InputState is the mouse state an input report is built from. Buttons
// persist until toggled again; the deltas are one-shot pulses consumed
// after every report.
type InputState struct {
	Btn1, Btn2, Btn3 bool
	// DX/DY: signed 8-bit relative movement
	DX, DY int8
	// Wheel: signed 8-bit vertical scroll
	Wheel int8
}

// ReportSize is the fixed size of the input report.
const ReportSize = 4

// BuildReport encodes the state into the 4-byte HID mouse report.
//
// Report layout (4 bytes):
//
//	Byte 0: Button bitfield (bit 0=Btn1, bit 1=Btn2, bit 2=Btn3, bits 3-7=padding)
//	Byte 1: DX (int8)
//	Byte 2: DY (int8)
//	Byte 3: Wheel (int8)
func (s *InputState) BuildReport() [ReportSize]byte {
	var b [ReportSize]byte
	if s.Btn1 {
		b[0] |= 0x01
	}
	if s.Btn2 {
		b[0] |= 0x02
	}
	if s.Btn3 {
		b[0] |= 0x04
	}
	b[1] = byte(s.DX)
	b[2] = byte(s.DY)
	b[3] = byte(s.Wheel)
	return b
}

// ConsumeDeltas zeroes the relative fields so each motion or wheel
// command produces exactly one report. Buttons are untouched.
func (s *InputState) ConsumeDeltas() {
	s.DX = 0
	s.DY = 0
	s.Wheel = 0
}
