package evdev

import (
	"math/bits"
	"unsafe"
)

const wordBits = bits.UintSize

// Bitset is the kernel's unsigned long array used by capability queries and
// event masks. Bit i lives in word i/wordBits at position i%wordBits.
type Bitset []uint

// NewBitset returns a zeroed bitset large enough to hold bit max.
func NewBitset(max int) Bitset {
	return make(Bitset, max/wordBits+1)
}

func (b Bitset) Get(i int) bool {
	w := i / wordBits
	if i < 0 || w >= len(b) {
		return false
	}
	return (b[w]>>(uint(i)%wordBits))&1 == 1
}

func (b Bitset) Set(i int) {
	b[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// Size is the size of the bitset in bytes as seen by ioctl.
func (b Bitset) Size() int {
	return len(b) * int(unsafe.Sizeof(uint(0)))
}

// Count returns the number of set bits.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount(w)
	}
	return n
}
