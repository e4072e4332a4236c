package uhid_test

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virthid/softmouse/uhid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ev   uhid.Event
	}{
		{
			name: "create2",
			ev: uhid.Create2{
				Name:       "softmouse",
				Phys:       "virt/0",
				Uniq:       "0001",
				Bus:        0x03,
				Vendor:     0x15d9,
				Product:    0x0a37,
				Version:    1,
				Country:    0,
				Descriptor: []byte{0x05, 0x01, 0x09, 0x02, 0xC0},
			},
		},
		{name: "destroy", ev: uhid.Destroy{}},
		{name: "input2", ev: uhid.Input2{Data: []byte{0x05, 0xEC, 0x00, 0x01}}},
		{name: "start", ev: uhid.Start{DevFlags: 0xdeadbeefcafe}},
		{name: "stop", ev: uhid.Stop{}},
		{name: "open", ev: uhid.Open{}},
		{name: "close", ev: uhid.Close{}},
		{name: "output", ev: uhid.Output{Data: []byte{0x01}, RType: uhid.ReportTypeOutput}},
		{name: "legacy output event", ev: uhid.OutputEV{}},
		{name: "get report", ev: uhid.GetReport{ID: 42, RNum: 1, RType: uhid.ReportTypeInput}},
		{name: "get report reply", ev: uhid.GetReportReply{ID: 42, Err: 0, Data: []byte{0x07, 0x00, 0x00, 0x00}}},
		{name: "set report", ev: uhid.SetReport{ID: 7, RNum: 0, RType: uhid.ReportTypeFeature, Data: []byte{0xAA, 0xBB}}},
		{name: "set report reply", ev: uhid.SetReportReply{ID: 7, Err: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := uhid.Encode(tt.ev)
			require.NoError(t, err)
			require.Len(t, buf, uhid.EventSize)

			got, err := uhid.Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, tt.ev, got)
		})
	}
}

func TestEncodeCreate2Layout(t *testing.T) {
	buf, err := uhid.Encode(uhid.Create2{
		Name:       "softmouse",
		Bus:        0x03,
		Vendor:     0x15d9,
		Product:    0x0a37,
		Version:    0x0100,
		Country:    0x21,
		Descriptor: []byte{0xAA, 0xBB, 0xCC},
	})
	require.NoError(t, err)

	// Exact kernel struct layout: tag, then the packed create2 request.
	assert.Equal(t, uint32(11), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, []byte("softmouse\x00"), buf[4:14])
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(buf[260:262]), "rd_size")
	assert.Equal(t, uint16(0x03), binary.LittleEndian.Uint16(buf[262:264]), "bus")
	assert.Equal(t, uint32(0x15d9), binary.LittleEndian.Uint32(buf[264:268]), "vendor")
	assert.Equal(t, uint32(0x0a37), binary.LittleEndian.Uint32(buf[268:272]), "product")
	assert.Equal(t, uint32(0x0100), binary.LittleEndian.Uint32(buf[272:276]), "version")
	assert.Equal(t, uint32(0x21), binary.LittleEndian.Uint32(buf[276:280]), "country")
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, buf[280:283], "rd_data")
}

func TestEncodeInput2Layout(t *testing.T) {
	buf, err := uhid.Encode(uhid.Input2{Data: []byte{0x05, 0xEC, 0x00, 0x01}})
	require.NoError(t, err)

	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(buf[4:6]), "size")
	assert.Equal(t, []byte{0x05, 0xEC, 0x00, 0x01}, buf[6:10])
	// trailing payload stays zero
	assert.Equal(t, byte(0), buf[10])
}

func TestEncodeBounds(t *testing.T) {
	tests := []struct {
		name    string
		ev      uhid.Event
		wantErr error
	}{
		{
			name:    "name too long",
			ev:      uhid.Create2{Name: strings.Repeat("n", 128)},
			wantErr: uhid.ErrNameTooLong,
		},
		{
			name:    "name at capacity",
			ev:      uhid.Create2{Name: strings.Repeat("n", 127)},
			wantErr: nil,
		},
		{
			name:    "phys too long",
			ev:      uhid.Create2{Name: "m", Phys: strings.Repeat("p", 64)},
			wantErr: uhid.ErrPhysTooLong,
		},
		{
			name:    "uniq too long",
			ev:      uhid.Create2{Name: "m", Uniq: strings.Repeat("u", 64)},
			wantErr: uhid.ErrUniqTooLong,
		},
		{
			name:    "descriptor too long",
			ev:      uhid.Create2{Name: "m", Descriptor: make([]byte, 4097)},
			wantErr: uhid.ErrDescriptorTooLong,
		},
		{
			name:    "input report too long",
			ev:      uhid.Input2{Data: make([]byte, 4097)},
			wantErr: uhid.ErrReportTooLong,
		},
		{
			name:    "reply report too long",
			ev:      uhid.GetReportReply{Data: make([]byte, 4097)},
			wantErr: uhid.ErrReportTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uhid.Encode(tt.ev)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := uhid.Decode(make([]byte, 16))
	assert.ErrorIs(t, err, uhid.ErrMalformedFrame)

	_, err = uhid.Decode(make([]byte, uhid.EventSize+1))
	assert.ErrorIs(t, err, uhid.ErrMalformedFrame)

	// well-sized frame with an impossible payload size
	buf := make([]byte, uhid.EventSize)
	binary.LittleEndian.PutUint32(buf[0:4], 12) // input2
	binary.LittleEndian.PutUint16(buf[4:6], 4097)
	_, err = uhid.Decode(buf)
	assert.ErrorIs(t, err, uhid.ErrMalformedFrame)
}

func TestDecodeUnknownTag(t *testing.T) {
	// 0 and 8 are the legacy create/input requests; this program never
	// emits them and the kernel never delivers them, so the decoder
	// treats them like any other unknown tag.
	for _, tag := range []uint32{0, 8, 15, 99} {
		buf := make([]byte, uhid.EventSize)
		binary.LittleEndian.PutUint32(buf[0:4], tag)
		_, err := uhid.Decode(buf)
		assert.ErrorIs(t, err, uhid.ErrUnknownEventType, "tag %d", tag)
	}
}
