package power_test

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ydb-platform/lid-manager/internal/power"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Online attribute", func() {
	DescribeTable("decoding",
		func(in string, online bool, valid bool) {
			got, err := power.DecodeOnline([]byte(in))
			if valid {
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(online))
			} else {
				Expect(err).To(MatchError(power.ErrDecode))
			}
		},
		Entry("online", "1\n", true, true),
		Entry("offline", "0\n", false, true),
		Entry("empty", "", false, false),
		Entry("no newline", "1", false, false),
		Entry("extra byte", "1\n\n", false, false),
		Entry("other digit", "2\n", false, false),
		Entry("word", "yes\n", false, false),
	)

	It("should read the attribute from the supply directory", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "online"), []byte("1\n"), 0o644)).To(Succeed())
		Expect(power.ReadOnline(dir)).To(BeTrue())
	})

	It("should not accept an oversized attribute", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "online"), []byte("1\nxxxxxxx"), 0o644)).To(Succeed())
		_, err := power.ReadOnline(dir)
		Expect(err).To(MatchError(power.ErrDecode))
	})

	It("should surface a missing attribute", func() {
		_, err := power.ReadOnline(GinkgoT().TempDir())
		Expect(err).To(MatchError(fs.ErrNotExist))
	})

	It("should treat unknown as connected", func() {
		Expect(power.Unknown.Connected()).To(BeTrue())
		Expect(power.Online.Connected()).To(BeTrue())
		Expect(power.Offline.Connected()).To(BeFalse())
	})
})
