package evdev

// Event types and switch codes from linux/input-event-codes.h.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvSw  = 0x05
	EvMax = 0x1f

	SwLid  = 0x00
	SwDock = 0x05
	SwMax  = 0x10
)

// Mask restricts the codes of one event type the kernel delivers to this
// file descriptor.
type Mask struct {
	Type  uint32
	Codes Bitset
}

// LidMask only lets switch events for the lid and dock codes through.
func LidMask() []Mask {
	types := NewBitset(EvSw)
	types.Set(EvKey)
	types.Set(EvSw)

	switches := NewBitset(SwDock)
	switches.Set(SwLid)
	switches.Set(SwDock)

	return []Mask{
		{Type: EvSyn, Codes: types},
		{Type: EvSw, Codes: switches},
	}
}

// IsLidSwitch reports whether the capability bitmaps describe a device able
// to report SW_LID.
func IsLidSwitch(types, switches Bitset) bool {
	return types.Get(EvSw) && switches.Get(SwLid)
}
