package halserial

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stream adapts a Port into grblcore.StreamHAL: a background reader drains
// the tty into a small buffered channel so Read never blocks the foreground
// loop, matching the "ISR feeds a ring, foreground drains it" shape the rest
// of this core uses for its own realtime register.
type Stream struct {
	port *Port

	suspended atomic.Bool
	done      chan struct{}
	closeOnce sync.Once

	buf chan byte
}

// NewStream starts the background reader over port. bufSize bounds how many
// bytes can queue between foreground drains; 256 matches a typical
// controller's own RX ring.
func NewStream(port *Port, bufSize int) *Stream {
	if bufSize <= 0 {
		bufSize = 256
	}
	s := &Stream{
		port: port,
		done: make(chan struct{}),
		buf:  make(chan byte, bufSize),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	var chunk [64]byte
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if s.suspended.Load() {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		n, err := s.port.ReadTimeout(chunk[:], 50*time.Millisecond)
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			select {
			case s.buf <- chunk[i]:
			case <-s.done:
				return
			}
		}
	}
}

// Read implements grblcore.StreamHAL: it never blocks, returning ok=false
// when the buffer is currently empty.
func (s *Stream) Read() (byte, bool) {
	select {
	case b := <-s.buf:
		return b, true
	default:
		return 0, false
	}
}

// SuspendRead implements grblcore.StreamHAL, used while a safety-door or
// feed-hold sequence wants the controller link frozen mid-stream.
func (s *Stream) SuspendRead(suspend bool) {
	s.suspended.Store(suspend)
}

// CancelReadBuffer implements grblcore.StreamHAL: it discards whatever has
// queued so far, the behavior the realtime ingest layer invokes on a stop or
// jog-cancel event.
func (s *Stream) CancelReadBuffer() {
	for {
		select {
		case <-s.buf:
		default:
			return
		}
	}
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.port.Close()
}
