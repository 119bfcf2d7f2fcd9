package acpi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Layout of struct acpi_genl_event from drivers/acpi/event.c.
const (
	deviceClassLen = 20
	busIDLen       = 15
	eventSize      = 44

	typeOffset = 36
	dataOffset = 40
)

// ClassACAdapter is the device class the kernel reports for mains adapters.
const ClassACAdapter = "ac_adapter"

type Event struct {
	DeviceClass string
	BusID       string
	Type        uint32
	Data        uint32
}

func (ev Event) String() string {
	return fmt.Sprintf("%s %s %08x %08x", ev.DeviceClass, ev.BusID, ev.Type, ev.Data)
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func parseEvent(b []byte) (Event, error) {
	if len(b) < eventSize {
		return Event{}, fmt.Errorf("acpi event too short: %d bytes", len(b))
	}
	return Event{
		DeviceClass: cstring(b[:deviceClassLen]),
		BusID:       cstring(b[deviceClassLen : deviceClassLen+busIDLen]),
		Type:        binary.NativeEndian.Uint32(b[typeOffset:]),
		Data:        binary.NativeEndian.Uint32(b[dataOffset:]),
	}, nil
}

func encodeEvent(ev Event) []byte {
	b := make([]byte, eventSize)
	copy(b[:deviceClassLen-1], ev.DeviceClass)
	copy(b[deviceClassLen:deviceClassLen+busIDLen-1], ev.BusID)
	binary.NativeEndian.PutUint32(b[typeOffset:], ev.Type)
	binary.NativeEndian.PutUint32(b[dataOffset:], ev.Data)
	return b
}
