package evdev

import "unsafe"

const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

// inputMask is struct input_mask.
type inputMask struct {
	Type      uint32
	CodesSize uint32
	CodesPtr  uint64
}

func eviocgname(size int) uintptr {
	return ioc(iocRead, 'E', 0x06, uintptr(size))
}

func eviocgbit(ev, size int) uintptr {
	return ioc(iocRead, 'E', 0x20+uintptr(ev), uintptr(size))
}

var eviocsmask = ioc(iocWrite, 'E', 0x93, unsafe.Sizeof(inputMask{}))
