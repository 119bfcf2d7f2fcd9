package evdev

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrShortRead is returned by ReadEvent when fewer bytes than one record were
// read.
var ErrShortRead = errors.New("evdev: short read")

// Device is an open /dev/input/event* node. The descriptor stays
// non-blocking; reads park in the runtime poller and Close unblocks them.
type Device struct {
	path string
	f    *os.File
	buf  [EventSize]byte
}

func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NONBLOCK|unix.O_NOCTTY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device %q: %w", path, err)
	}
	return &Device{path: path, f: f}, nil
}

func (d *Device) Path() string {
	return d.path
}

func (d *Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	rc, err := d.f.SyscallConn()
	if err != nil {
		return err
	}
	var errno syscall.Errno
	err = rc.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg))
	})
	if err != nil {
		return err
	}
	if errno != 0 {
		return errno
	}
	return nil
}

// Name returns the device name reported by EVIOCGNAME.
func (d *Device) Name() (string, error) {
	var name [256]byte
	if err := d.ioctl(eviocgname(len(name)), unsafe.Pointer(&name[0])); err != nil {
		return "", fmt.Errorf("EVIOCGNAME on %q: %w", d.path, err)
	}
	if i := bytes.IndexByte(name[:], 0); i >= 0 {
		return string(name[:i]), nil
	}
	return string(name[:]), nil
}

// Capabilities returns the supported event types and switch codes.
func (d *Device) Capabilities() (types, switches Bitset, err error) {
	types = NewBitset(EvMax)
	if err := d.ioctl(eviocgbit(EvSyn, types.Size()), unsafe.Pointer(&types[0])); err != nil {
		return nil, nil, fmt.Errorf("EVIOCGBIT(EV_SYN) on %q: %w", d.path, err)
	}
	switches = NewBitset(SwMax)
	if !types.Get(EvSw) {
		return types, switches, nil
	}
	if err := d.ioctl(eviocgbit(EvSw, switches.Size()), unsafe.Pointer(&switches[0])); err != nil {
		return nil, nil, fmt.Errorf("EVIOCGBIT(EV_SW) on %q: %w", d.path, err)
	}
	return types, switches, nil
}

// SetMask installs the event filters with EVIOCSMASK.
func (d *Device) SetMask(masks ...Mask) error {
	for _, m := range masks {
		im := inputMask{
			Type:      m.Type,
			CodesSize: uint32(m.Codes.Size()),
			CodesPtr:  uint64(uintptr(unsafe.Pointer(&m.Codes[0]))),
		}
		err := d.ioctl(eviocsmask, unsafe.Pointer(&im))
		runtime.KeepAlive(m.Codes)
		if err != nil {
			return fmt.Errorf("EVIOCSMASK(type %d) on %q: %w", m.Type, d.path, err)
		}
	}
	return nil
}

// ReadEvent reads a single record.
func (d *Device) ReadEvent() (Event, error) {
	n, err := d.f.Read(d.buf[:])
	if err != nil {
		return Event{}, err
	}
	ev, ok := DecodeEvent(d.buf[:n])
	if !ok {
		return Event{}, ErrShortRead
	}
	return ev, nil
}

func (d *Device) Close() error {
	return d.f.Close()
}
