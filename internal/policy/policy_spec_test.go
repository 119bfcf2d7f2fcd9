package policy_test

import (
	"github.com/ydb-platform/lid-manager/internal/policy"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type prefs map[string]string

func (p prefs) Preference(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

var _ = Describe("Policy", func() {
	DescribeTable("preference values",
		func(value string, want policy.Action) {
			Expect(policy.Parse(value)).To(Equal(want))
		},
		Entry("blank", "blank", policy.Lock),
		Entry("suspend", "suspend", policy.LockThenSuspend),
		Entry("shutdown", "shutdown", policy.Shutdown),
		Entry("hibernate", "hibernate", policy.LockThenHibernate),
		Entry("logout", "logout", policy.LogOut),
		Entry("nothing", "nothing", policy.NoOp),
		Entry("empty", "", policy.NoOp),
		Entry("case sensitive", "Suspend", policy.NoOp),
	)

	Context("fixed", func() {
		It("should lock on mains", func() {
			Expect(policy.Decide(true, true, nil)).To(Equal(policy.Lock))
		})

		It("should lock and suspend on battery", func() {
			Expect(policy.Decide(true, false, nil)).To(Equal(policy.LockThenSuspend))
		})

		It("should do nothing while the lid is open", func() {
			Expect(policy.Decide(false, true, nil)).To(Equal(policy.NoOp))
			Expect(policy.Decide(false, false, nil)).To(Equal(policy.NoOp))
		})
	})

	Context("preferences", func() {
		p := prefs{
			policy.KeyACAction:      "hibernate",
			policy.KeyBatteryAction: "shutdown",
		}

		It("should consult the key for the AC state", func() {
			Expect(policy.Decide(true, true, p)).To(Equal(policy.LockThenHibernate))
			Expect(policy.Decide(true, false, p)).To(Equal(policy.Shutdown))
		})

		It("should do nothing for an absent key", func() {
			Expect(policy.Decide(true, true, prefs{})).To(Equal(policy.NoOp))
		})

		It("should do nothing while the lid is open", func() {
			Expect(policy.Decide(false, false, p)).To(Equal(policy.NoOp))
		})

		It("should be total over arbitrary values", func() {
			for _, v := range []string{"\x00", "suspend ", "lock", "☃"} {
				Expect(policy.Decide(true, true, prefs{policy.KeyACAction: v})).To(Equal(policy.NoOp))
			}
		})
	})

	Context("strategy", func() {
		It("should wrap the decision", func() {
			Expect(policy.Fixed().Decide(true, false)).To(Equal(policy.LockThenSuspend))
			Expect(policy.New(prefs{policy.KeyBatteryAction: "blank"}).Decide(true, false)).To(Equal(policy.Lock))
		})

		It("should name actions", func() {
			Expect(policy.LockThenSuspend.String()).To(Equal("lock-then-suspend"))
			Expect(policy.Action(42).String()).To(Equal("Action(42)"))
		})
	})
})
