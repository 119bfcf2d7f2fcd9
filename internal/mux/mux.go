package mux

import (
	"fmt"
	"time"
)

type Logger interface {
	Info(format string, args ...interface{})
}

type AwaitReply[T, U any] struct {
	value T
	reply chan U
}

func (ar AwaitReply[T, U]) Value() T {
	return ar.value
}

func (ar AwaitReply[T, U]) Reply(value U) {
	ar.reply <- value
	close(ar.reply)
}

func (ar AwaitReply[T, U]) Await() U {
	return <-ar.reply
}

type AwaitDone[T any] struct {
	AwaitReply[T, struct{}]
}

func (ad AwaitDone[T]) Done() {
	ad.Reply(struct{}{})
}

func (ad AwaitDone[T]) Wait() {
	ad.Await()
}

func NewAwaitReply[T, U any](value T) AwaitReply[T, U] {
	return AwaitReply[T, U]{
		value: value,
		reply: make(chan U),
	}
}

func NewAwaitDone[T any](value T) AwaitDone[T] {
	return AwaitDone[T]{
		NewAwaitReply[T, struct{}](value),
	}
}

type Sink[T any] interface {
	Submit(T) error
	Close()
}

type chanSink[T any] struct {
	ch chan<- T
}

func (c *chanSink[T]) Submit(v T) error {
	c.ch <- v
	return nil
}

func (c *chanSink[T]) Close() {
	close(c.ch)
}

func SinkFromChan[T any](ch chan<- T) Sink[T] {
	return &chanSink[T]{ch}
}

type funcSink[T any] struct {
	f func(T)
}

func (s *funcSink[T]) Submit(v T) error {
	s.f(v)
	return nil
}

func (s *funcSink[T]) Close() {}

// SinkFromFunc wraps f as a Sink. f runs on the Mux goroutine and must not block.
func SinkFromFunc[T any](f func(T)) Sink[T] {
	return &funcSink[T]{f}
}

type filterSink[T any] struct {
	sink Sink[T]
	f    FilterFunc[T]
}

func (c *filterSink[T]) Submit(v T) error {
	if c.f(v) {
		return c.sink.Submit(v)
	}
	return nil
}

func (c *filterSink[T]) Close() {
	c.sink.Close()
}

func FilterSink[T any](sink Sink[T], f FilterFunc[T]) Sink[T] {
	return &filterSink[T]{sink, f}
}

type Source[T any] interface {
	Subscribe(Sink[T]) CancelFunc
}

// Mux fans every submitted value out to all subscribed sinks, in submission order.
type Mux[T any] struct {
	input      chan T
	register   chan AwaitDone[Sink[T]]
	unregister chan AwaitDone[Sink[T]]
	outputs    map[Sink[T]]bool

	submitTimeout time.Duration
	inBufSize     int
	logger        Logger
}

type Option[T any] interface {
	apply(*Mux[T])
}

type buffered[T any] struct {
	Size int
}

func (b *buffered[T]) apply(m *Mux[T]) {
	m.inBufSize = b.Size
}

func Buffered[T any](size int) Option[T] {
	return &buffered[T]{size}
}

type withLogger[T any] struct {
	Logger Logger
}

func (l *withLogger[T]) apply(m *Mux[T]) {
	m.logger = l.Logger
}

func WithLogger[T any](logger Logger) Option[T] {
	return &withLogger[T]{logger}
}

type withSubmitTimeout[T any] struct {
	timeout time.Duration
}

func (t *withSubmitTimeout[T]) apply(m *Mux[T]) {
	m.submitTimeout = t.timeout
}

func WithSubmitTimeout[T any](timeout time.Duration) Option[T] {
	return &withSubmitTimeout[T]{timeout}
}

func Make[T any](opts ...Option[T]) *Mux[T] {
	mux := &Mux[T]{
		submitTimeout: 1 * time.Second,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(mux)
	}

	mux.input = make(chan T, mux.inBufSize)
	mux.register = make(chan AwaitDone[Sink[T]])
	mux.unregister = make(chan AwaitDone[Sink[T]])
	mux.outputs = make(map[Sink[T]]bool)

	go mux.run()

	return mux
}

func (m *Mux[T]) run() {
	defer func() {
		for sub := range m.outputs {
			delete(m.outputs, sub)
			sub.Close()
		}
	}()

	for {
		select {
		case v := <-m.input:
			for out := range m.outputs {
				if err := out.Submit(v); err != nil {
					m.error("error submitting value %v: %v", v, err)
				}
			}
		case ar, ok := <-m.register:
			if !ok {
				return
			}
			m.outputs[ar.value] = true
			ar.Done()
		case ar := <-m.unregister:
			sub := ar.value
			if m.outputs[sub] {
				delete(m.outputs, sub)
				sub.Close()
			}
			ar.Done()
		}
	}
}

func (m *Mux[T]) error(format string, args ...any) error {
	if m.logger != nil {
		m.logger.Info(format, args...)
	}
	return fmt.Errorf(format, args...)
}

// Close stops the fan-out and closes every sink still subscribed. Subscribe
// must not be called after Close, and a CancelFunc called after Close blocks
// forever, so cancel subscriptions first.
func (m *Mux[T]) Close() {
	close(m.register)
}

func (m *Mux[T]) Submit(v T) error {
	select {
	case m.input <- v:
		return nil
	case <-time.After(m.submitTimeout):
		return m.error("timed out submitting value %v after %s", v, m.submitTimeout)
	}
}

type CancelFunc func()

func (m *Mux[T]) Subscribe(sink Sink[T]) CancelFunc {
	ar := NewAwaitDone(sink)
	m.register <- ar
	ar.Wait()

	return func() {
		ar := NewAwaitDone(sink)
		m.unregister <- ar
		ar.Wait()
	}
}

func ChainCancelFunc(cf1, cf2 func(), cfs ...func()) CancelFunc {
	return func() {
		cf1()
		cf2()
		for _, cf := range cfs {
			if cf != nil {
				cf()
			}
		}
	}
}
