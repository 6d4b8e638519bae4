package halserial

import (
	ioctl "github.com/daedaluz/goioctl"
	"unsafe"
)

// ioctl request numbers for the termios calls this driver actually issues.
// setAttr/SetAttr2 reach TCSETSW/TCSETSF by adding the Action offset (0, 1,
// 2) onto tcsets/tcsets2 rather than naming each one, so only the base get
// and set requests are kept here.
var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tcgets2 = ioctl.IOR('T', 0x2A, unsafe.Sizeof(Termios2{}))
	tcsets2 = ioctl.IOW('T', 0x2B, unsafe.Sizeof(Termios2{}))
)
