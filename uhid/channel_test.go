package uhid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/virthid/softmouse/uhid"
)

// channelPair returns two connected channels over a seqpacket socket
// pair, which preserves frame boundaries like the uhid chardev does.
func channelPair(t *testing.T) (*uhid.Channel, *uhid.Channel) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)

	a := uhid.NewChannel(fds[0])
	b := uhid.NewChannel(fds[1])
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func TestChannelWriteReadEvent(t *testing.T) {
	app, kernel := channelPair(t)

	want := uhid.Input2{Data: []byte{0x01, 0x14, 0x00, 0xFF}}
	require.NoError(t, app.WriteEvent(want))

	got, err := kernel.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestChannelWritesFullFrames(t *testing.T) {
	app, kernel := channelPair(t)

	require.NoError(t, app.WriteEvent(uhid.Destroy{}))

	buf := make([]byte, uhid.EventSize+64)
	n, err := unix.Read(kernel.Fd(), buf)
	require.NoError(t, err)
	assert.Equal(t, uhid.EventSize, n)
}

func TestChannelReadClosedPeer(t *testing.T) {
	app, kernel := channelPair(t)
	require.NoError(t, kernel.Close())

	_, err := app.ReadEvent()
	assert.ErrorIs(t, err, uhid.ErrChannelClosed)
}

func TestChannelReadShortFrame(t *testing.T) {
	app, kernel := channelPair(t)

	_, err := unix.Write(kernel.Fd(), []byte{1, 2, 3, 4, 5})
	require.NoError(t, err)

	_, err = app.ReadEvent()
	assert.ErrorIs(t, err, uhid.ErrChannelRead)
}

func TestChannelEncodeErrorDoesNotWrite(t *testing.T) {
	app, kernel := channelPair(t)

	err := app.WriteEvent(uhid.Input2{Data: make([]byte, 4097)})
	assert.ErrorIs(t, err, uhid.ErrReportTooLong)

	// nothing must have crossed the channel
	require.NoError(t, unix.SetNonblock(kernel.Fd(), true))
	buf := make([]byte, uhid.EventSize)
	_, rerr := unix.Read(kernel.Fd(), buf)
	assert.ErrorIs(t, rerr, unix.EAGAIN)
}

func TestChannelCloseIdempotent(t *testing.T) {
	app, _ := channelPair(t)
	require.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}

func TestOpenChannelMissingEndpoint(t *testing.T) {
	_, err := uhid.OpenChannel("/nonexistent/uhid")
	assert.ErrorIs(t, err, uhid.ErrChannelOpen)
}
