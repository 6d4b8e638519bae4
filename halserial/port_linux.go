// Package halserial implements grblcore.StreamHAL over a Linux tty device,
// adapted from the goserial driver's ioctl-based termios access.
package halserial

import (
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/daedaluz/fdev/poll"
	ioctl "github.com/daedaluz/goioctl"
)

type Error struct {
	msg string
	err error
}

func (e Error) Error() string {
	if e.msg != "" {
		if e.err != nil {
			return e.msg + ": " + e.err.Error()
		}
		return e.msg
	}
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}

func (e Error) Unwrap() error { return e.err }

func wrapErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return Error{msg: msg, err: err}
}

var ErrClosed = Error{"port already closed", syscall.EBADF}

// Options configures an opened Port. Unlike the general-purpose goserial
// package this driver always runs O_RDWR|O_NOCTTY and always puts the line
// in raw mode, since a CNC controller link never needs canonical/cooked tty
// behavior.
type Options struct {
	ReadPollTimeout time.Duration
	Baud            CFlag
}

func NewOptions() *Options {
	return &Options{ReadPollTimeout: 50 * time.Millisecond, Baud: B115200}
}

// Port is a raw-mode tty file descriptor.
type Port struct {
	f      int
	closed atomic.Bool
}

// Open opens name, puts it in raw mode at opts.Baud, and returns the Port.
func Open(name string, opts *Options) (*Port, error) {
	if opts == nil {
		opts = NewOptions()
	}
	fd, err := syscall.Open(name, syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, wrapErr("open "+name, err)
	}
	p := &Port{f: fd}
	if err := p.configure(opts.Baud); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return p, nil
}

func (p *Port) configure(baud CFlag) error {
	attrs, err := p.getAttr()
	if err != nil {
		return wrapErr("tcgets", err)
	}
	attrs.MakeRaw()
	attrs.SetSpeed(baud)
	attrs.Cflag |= CREAD | CLOCAL
	return wrapErr("tcsets", p.setAttr(TCSANOW, attrs))
}

func (p *Port) getAttr() (*Termios, error) {
	attrs := &Termios{}
	err := ioctl.Ioctl(uintptr(p.f), tcgets, uintptr(unsafe.Pointer(attrs)))
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *Port) setAttr(when Action, attrs *Termios) error {
	return ioctl.Ioctl(uintptr(p.f), tcsets+uintptr(when), uintptr(unsafe.Pointer(attrs)))
}

// GetAttr2/SetAttr2 go through the termios2 ioctl, which carries the custom
// ISpeed/OSpeed fields BOTHER needs for non-table baud rates.
func (p *Port) GetAttr2() (*Termios2, error) {
	attrs := &Termios2{}
	err := ioctl.Ioctl(uintptr(p.f), tcgets2, uintptr(unsafe.Pointer(attrs)))
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *Port) SetAttr2(when Action, attrs *Termios2) error {
	return ioctl.Ioctl(uintptr(p.f), tcsets2+uintptr(when), uintptr(unsafe.Pointer(attrs)))
}

func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	return syscall.Write(p.f, data)
}

// ReadTimeout reads at most len(data) bytes, waiting up to timeout for the
// first byte to arrive. A timeout with no data returns (0, nil).
func (p *Port) ReadTimeout(data []byte, timeout time.Duration) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	if err := poll.WaitInput(p.f, timeout); err != nil {
		if err == syscall.EAGAIN || err == syscall.ETIMEDOUT {
			return 0, nil
		}
		return 0, err
	}
	return syscall.Read(p.f, data)
}

func (p *Port) Close() error {
	if !p.closed.Swap(true) {
		fd := p.f
		p.f = -1
		return syscall.Close(fd)
	}
	return ErrClosed
}
