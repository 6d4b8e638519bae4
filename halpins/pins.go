// Package halpins implements grblcore.ControlPinHAL over an SPI-attached
// GPIO expander, adapted from goserial's spi package ioctl transfer code.
package halpins

import (
	"reflect"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"

	"github.com/gocnc/grblcore"
)

const spiIOCMagic = 'k'

type spiIOCTransfer struct {
	txBuf uint64
	rxBuf uint64

	length  uint32
	speedHz uint32

	delayUsecs    uint16
	bitsPerWord   uint8
	csChange      uint8
	txNBits       uint8
	rxNBits       uint8
	wordDelayUsec uint8
	pad           uint8
}

var (
	spiIOCWRMaxSpeedHz  = ioctl.IOW(spiIOCMagic, 4, 4)
	spiIOCWRBitsPerWord = ioctl.IOW(spiIOCMagic, 3, 1)
	spiIOCWRMode32      = ioctl.IOW(spiIOCMagic, 5, 4)
	spiIOCMessage       = ioctl.IOW(spiIOCMagic, 0, unsafe.Sizeof(spiIOCTransfer{}))
)

// Wiring maps the expander's input bits to the five control-pin signals
// spec.md's ControlState needs. Boards differ on which bit lands where, so
// this is configuration rather than a constant.
type Wiring struct {
	Mode     uint32
	Bits     uint8
	SpeedHz  uint32
	ResetBit uint8
	CycleBit uint8
	HoldBit  uint8
	DoorBit  uint8
	EStopBit uint8

	// ActiveLow inverts the read byte before bit-testing, for
	// open-drain/pulled-up wiring (the common case for limit-switch style
	// inputs).
	ActiveLow bool
}

// Expander is a GPIO-over-SPI control-pin reader implementing
// grblcore.ControlPinHAL.
type Expander struct {
	fd  int
	cfg Wiring
}

// Open configures the SPI device at path per cfg and returns an Expander.
func Open(path string, cfg Wiring) (*Expander, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := ioctl.Ioctl(fd, spiIOCWRMaxSpeedHz, uintptr(unsafe.Pointer(&cfg.SpeedHz))); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	if err := ioctl.Ioctl(fd, spiIOCWRBitsPerWord, uintptr(unsafe.Pointer(&cfg.Bits))); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	if err := ioctl.Ioctl(fd, spiIOCWRMode32, uintptr(unsafe.Pointer(&cfg.Mode))); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return &Expander{fd: fd, cfg: cfg}, nil
}

// readByte performs a one-byte full-duplex SPI transfer, the same ioctl
// shape goserial's spi.Device.Tx uses, trimmed to the single-byte status
// reads this driver needs.
func (e *Expander) readByte() (byte, error) {
	tx := []byte{0x00}
	rx := make([]byte, 1)

	txHdr := (*reflect.SliceHeader)(unsafe.Pointer(&tx))
	rxHdr := (*reflect.SliceHeader)(unsafe.Pointer(&rx))

	xfer := &spiIOCTransfer{
		txBuf:       uint64(txHdr.Data),
		rxBuf:       uint64(rxHdr.Data),
		length:      uint32(txHdr.Len),
		speedHz:     e.cfg.SpeedHz,
		bitsPerWord: e.cfg.Bits,
	}
	if err := ioctl.Ioctl(e.fd, spiIOCMessage, uintptr(unsafe.Pointer(xfer))); err != nil {
		return 0, err
	}
	return rx[0], nil
}

// GetControlState implements grblcore.ControlPinHAL.
func (e *Expander) GetControlState() grblcore.ControlState {
	b, err := e.readByte()
	if err != nil {
		// A dropped SPI transaction reads as "nothing asserted" rather
		// than panicking the main loop; the next poll retries.
		return grblcore.ControlState{}
	}
	if e.cfg.ActiveLow {
		b = ^b
	}
	return grblcore.ControlState{
		Reset:      b&(1<<e.cfg.ResetBit) != 0,
		CycleStart: b&(1<<e.cfg.CycleBit) != 0,
		FeedHold:   b&(1<<e.cfg.HoldBit) != 0,
		SafetyDoor: b&(1<<e.cfg.DoorBit) != 0,
		EStop:      b&(1<<e.cfg.EStopBit) != 0,
	}
}

func (e *Expander) Close() error {
	return syscall.Close(e.fd)
}
