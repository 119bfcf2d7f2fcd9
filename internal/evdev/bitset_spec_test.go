package evdev_test

import (
	"math/bits"

	"github.com/ydb-platform/lid-manager/internal/evdev"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bitset", func() {
	It("should size to hold the highest bit", func() {
		Expect(evdev.NewBitset(0)).To(HaveLen(1))
		Expect(evdev.NewBitset(bits.UintSize - 1)).To(HaveLen(1))
		Expect(evdev.NewBitset(bits.UintSize)).To(HaveLen(2))
		Expect(evdev.NewBitset(evdev.SwMax).Size()).To(Equal(bits.UintSize / 8))
	})

	It("should get what was set, across word boundaries", func() {
		b := evdev.NewBitset(3 * bits.UintSize)
		for _, i := range []int{0, 5, bits.UintSize - 1, bits.UintSize, 2*bits.UintSize + 3} {
			Expect(b.Get(i)).To(BeFalse())
			b.Set(i)
			Expect(b.Get(i)).To(BeTrue())
		}
		Expect(b.Count()).To(Equal(5))
		Expect(b.Get(1)).To(BeFalse())
	})

	It("should lay bits out as kernel words", func() {
		b := evdev.NewBitset(bits.UintSize + 1)
		b.Set(1)
		b.Set(bits.UintSize + 1)
		Expect(b[0]).To(Equal(uint(2)))
		Expect(b[1]).To(Equal(uint(2)))
	})

	It("should treat out of range bits as unset", func() {
		b := evdev.NewBitset(1)
		Expect(b.Get(-1)).To(BeFalse())
		Expect(b.Get(10 * bits.UintSize)).To(BeFalse())
	})
})

var _ = Describe("Capabilities", func() {
	It("should recognize a lid switch", func() {
		types := evdev.NewBitset(evdev.EvMax)
		switches := evdev.NewBitset(evdev.SwMax)
		Expect(evdev.IsLidSwitch(types, switches)).To(BeFalse())

		types.Set(evdev.EvSw)
		Expect(evdev.IsLidSwitch(types, switches)).To(BeFalse())

		switches.Set(evdev.SwDock)
		Expect(evdev.IsLidSwitch(types, switches)).To(BeFalse())

		switches.Set(evdev.SwLid)
		Expect(evdev.IsLidSwitch(types, switches)).To(BeTrue())
	})

	It("should not trust switch codes without EV_SW", func() {
		types := evdev.NewBitset(evdev.EvMax)
		types.Set(evdev.EvKey)
		switches := evdev.NewBitset(evdev.SwMax)
		switches.Set(evdev.SwLid)
		Expect(evdev.IsLidSwitch(types, switches)).To(BeFalse())
	})

	It("should mask everything but lid and dock switches", func() {
		masks := evdev.LidMask()
		Expect(masks).To(HaveLen(2))

		Expect(masks[0].Type).To(Equal(uint32(evdev.EvSyn)))
		Expect(masks[0].Codes.Get(evdev.EvKey)).To(BeTrue())
		Expect(masks[0].Codes.Get(evdev.EvSw)).To(BeTrue())
		Expect(masks[0].Codes.Count()).To(Equal(2))

		Expect(masks[1].Type).To(Equal(uint32(evdev.EvSw)))
		Expect(masks[1].Codes.Get(evdev.SwLid)).To(BeTrue())
		Expect(masks[1].Codes.Get(evdev.SwDock)).To(BeTrue())
		Expect(masks[1].Codes.Count()).To(Equal(2))
	})
})
