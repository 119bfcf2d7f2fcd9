package evdev_test

import (
	"golang.org/x/sys/unix"

	"github.com/ydb-platform/lid-manager/internal/evdev"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Event", func() {
	It("should decode a full record", func() {
		in := evdev.Event{
			Time:  unix.Timeval{Sec: 1544140800, Usec: 250},
			Type:  evdev.EvSw,
			Code:  evdev.SwLid,
			Value: 1,
		}
		b := evdev.EncodeEvent(in)
		Expect(b).To(HaveLen(evdev.EventSize))

		out, ok := evdev.DecodeEvent(b)
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(in))
		Expect(out.IsLid()).To(BeTrue())
		Expect(out.IsDock()).To(BeFalse())
	})

	It("should reject short and oversized records", func() {
		b := evdev.EncodeEvent(evdev.Event{Type: evdev.EvSw})
		_, ok := evdev.DecodeEvent(b[:len(b)-1])
		Expect(ok).To(BeFalse())
		_, ok = evdev.DecodeEvent(nil)
		Expect(ok).To(BeFalse())
		_, ok = evdev.DecodeEvent(append(b, 0))
		Expect(ok).To(BeFalse())
	})

	It("should classify dock events", func() {
		ev := evdev.Event{Type: evdev.EvSw, Code: evdev.SwDock, Value: 1}
		Expect(ev.IsDock()).To(BeTrue())
		Expect(ev.IsLid()).To(BeFalse())
		Expect(ev.String()).To(ContainSubstring("code 05"))
	})
})
