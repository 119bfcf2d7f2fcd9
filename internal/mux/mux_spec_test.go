package mux_test

import (
	"sync"

	"github.com/ydb-platform/lid-manager/internal/mux"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Mux", func() {
	Context("registration", func() {
		var m *mux.Mux[string]

		BeforeEach(func() {
			m = mux.Make[string]()
		})

		AfterEach(func() {
			m.Close()
		})

		It("should support multiple registrations", func() {
			in1 := make(chan string)
			in2 := make(chan string)
			cancel1 := m.Subscribe(mux.SinkFromChan(in1))
			cancel2 := m.Subscribe(mux.SinkFromChan(in2))

			Expect(cancel1).NotTo(BeNil())
			Expect(cancel2).NotTo(BeNil())

			cancel1()
			cancel2()
		})

		It("should stop delivering after cancel", func() {
			in := make(chan string, 1)
			cancel := m.Subscribe(mux.SinkFromChan(in))

			cancel()
			m.Submit("test")

			Consistently(in).ShouldNot(Receive(Equal("test")))
		})
	})

	Context("submission", func() {
		var m *mux.Mux[string]

		BeforeEach(func() {
			m = mux.Make(mux.WithLogger[string](GinkgoLogr))
		})

		AfterEach(func() {
			m.Close()
		})

		It("should distribute values to all registered outputs", func() {
			in1 := make(chan string)
			in2 := make(chan string)
			cancel1 := m.Subscribe(mux.SinkFromChan(in1))
			cancel2 := m.Subscribe(mux.SinkFromChan(in2))
			defer cancel1()
			defer cancel2()

			go func() {
				m.Submit("hello")
			}()

			Eventually(in1).Should(Receive(Equal("hello")))
			Eventually(in2).Should(Receive(Equal("hello")))
		})

		It("should keep submission order", func() {
			in := make(chan string)
			cancel := m.Subscribe(mux.SinkFromChan(in))
			defer cancel()

			go func() {
				m.Submit("one")
				m.Submit("two")
				m.Submit("three")
			}()

			Eventually(in).Should(Receive(Equal("one")))
			Eventually(in).Should(Receive(Equal("two")))
			Eventually(in).Should(Receive(Equal("three")))
		})

		It("should call function sinks", func() {
			var mu sync.Mutex
			var got []string
			cancel := m.Subscribe(mux.SinkFromFunc(func(v string) {
				mu.Lock()
				defer mu.Unlock()
				got = append(got, v)
			}))
			defer cancel()

			Expect(m.Submit("a")).To(Succeed())
			Expect(m.Submit("b")).To(Succeed())

			Eventually(func() []string {
				mu.Lock()
				defer mu.Unlock()
				return append([]string(nil), got...)
			}).Should(Equal([]string{"a", "b"}))
		})

		It("should drop values rejected by a filter sink", func() {
			in := make(chan string, 2)
			cancel := m.Subscribe(mux.FilterSink(mux.SinkFromChan(in), func(s string) bool {
				return s != "skip"
			}))
			defer cancel()

			Expect(m.Submit("skip")).To(Succeed())
			Expect(m.Submit("keep")).To(Succeed())

			Eventually(in).Should(Receive(Equal("keep")))
			Consistently(in).ShouldNot(Receive())
		})
	})

	Context("buffering", func() {
		It("should not block the submitter within the buffer size", func() {
			m := mux.Make(mux.Buffered[int](2))
			defer m.Close()

			in := make(chan int)
			cancel := m.Subscribe(mux.SinkFromChan(in))
			defer cancel()

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 3; i++ {
					m.Submit(i)
				}
			}()

			Eventually(in).Should(Receive(Equal(0)))
			Eventually(in).Should(Receive(Equal(1)))
			Eventually(in).Should(Receive(Equal(2)))

			wg.Wait()
		})
	})

	Context("closing", func() {
		It("should close a sink cancelled before close only once", func() {
			m := mux.Make[string]()
			in := make(chan string, 1)
			cancel := m.Subscribe(mux.SinkFromChan(in))

			cancel()
			Expect(func() { m.Close() }).NotTo(Panic())

			_, ok := <-in
			Expect(ok).To(BeFalse())
		})

		It("should close subscribed sinks", func() {
			m := mux.Make[string]()
			in1 := make(chan string)
			in2 := make(chan string)
			m.Subscribe(mux.SinkFromChan(in1))
			m.Subscribe(mux.SinkFromChan(in2))

			m.Close()

			Eventually(func() bool {
				_, ok := <-in1
				return ok
			}).Should(BeFalse())

			Eventually(func() bool {
				_, ok := <-in2
				return ok
			}).Should(BeFalse())
		})
	})
})
