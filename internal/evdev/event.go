package evdev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Event is struct input_event.
type Event struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const EventSize = int(unsafe.Sizeof(Event{}))

func (ev *Event) String() string {
	return fmt.Sprintf("event at %d.%06d, type %02d, code %02d, value %d",
		ev.Time.Sec, ev.Time.Usec, ev.Type, ev.Code, ev.Value)
}

// IsLid reports whether the event is a SW_LID switch event.
func (ev *Event) IsLid() bool {
	return ev.Type == EvSw && ev.Code == SwLid
}

// IsDock reports whether the event is a SW_DOCK switch event.
func (ev *Event) IsDock() bool {
	return ev.Type == EvSw && ev.Code == SwDock
}

// DecodeEvent decodes one record. ok is false unless b holds exactly one
// full record.
func DecodeEvent(b []byte) (ev Event, ok bool) {
	if len(b) != EventSize {
		return Event{}, false
	}
	if err := binary.Read(bytes.NewReader(b), binary.NativeEndian, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// EncodeEvent is the inverse of DecodeEvent.
func EncodeEvent(ev Event) []byte {
	var buf bytes.Buffer
	buf.Grow(EventSize)
	binary.Write(&buf, binary.NativeEndian, &ev)
	return buf.Bytes()
}
