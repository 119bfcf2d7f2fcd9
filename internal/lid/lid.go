// Package lid tracks the state of a lid switch input device.
package lid

import (
	"errors"
	"fmt"

	"github.com/ydb-platform/lid-manager/internal/evdev"
)

var ErrNotALidDevice = errors.New("lid: device does not report SW_LID")

type State int

const (
	Unopened State = iota
	Open
	Closed
)

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Device is the part of an input device handle the watcher needs.
type Device interface {
	Name() (string, error)
	Capabilities() (types, switches evdev.Bitset, err error)
	SetMask(masks ...evdev.Mask) error
	ReadEvent() (evdev.Event, error)
	Close() error
}

type Opener func(path string) (Device, error)

// OpenDevice opens an evdev node.
func OpenDevice(path string) (Device, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Transition describes one observed change. For dock updates From equals To.
type Transition struct {
	From   State
	To     State
	Docked bool
}

// Closing reports whether the lid has just been closed.
func (t Transition) Closing() bool {
	return t.To == Closed && t.From != Closed
}

type Handler interface {
	HandleLid(Transition)
}

type HandlerFunc func(Transition)

func (f HandlerFunc) HandleLid(t Transition) {
	f(t)
}
