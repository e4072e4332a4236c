package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger handles raw frame logging with optional file output.
type RawLogger interface {
	Log(in bool, data []byte)
}

// rawFramePreview caps the hex dump per frame. uhid frames are 4376
// bytes and almost entirely zero padding; the interesting fields sit at
// the front.
const rawFramePreview = 64

// rawLogger implements RawLogger with thread-safe output.
type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single-line frame dump with timestamp and truncated hex.
// in=true means uhid->app, in=false means app->uhid.
func (r *rawLogger) Log(in bool, data []byte) {
	if r.w == nil || len(data) == 0 {
		return
	}

	dir := "app->uhid"
	if in {
		dir = "uhid->app"
	}

	n := len(data)
	if n > rawFramePreview {
		n = rawFramePreview
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i := 0; i < n; i++ {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[data[i]>>4])
		hexbuf.WriteByte(hexdigits[data[i]&0x0f])
	}
	if n < len(data) {
		fmt.Fprintf(&hexbuf, " ..(+%d)", len(data)-n)
	}

	line := fmt.Sprintf("%s %s frame: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}
