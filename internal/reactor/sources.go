package reactor

import (
	"os"
	"os/signal"
	"time"
)

type chanSource[T any] struct {
	ch   <-chan T
	done chan struct{}
	stop func()
}

func (s *chanSource[T]) Receive() (T, error) {
	select {
	case v, ok := <-s.ch:
		if !ok {
			var zero T
			return zero, os.ErrClosed
		}
		return v, nil
	case <-s.done:
		var zero T
		return zero, os.ErrClosed
	}
}

func (s *chanSource[T]) Close() error {
	if s.stop != nil {
		s.stop()
	}
	close(s.done)
	return nil
}

// FromChan adapts a channel to a Source. Closing the source does not close ch.
func FromChan[T any](ch <-chan T) Source[T] {
	return &chanSource[T]{ch: ch, done: make(chan struct{})}
}

// Signals delivers the given process signals.
func Signals(sigs ...os.Signal) Source[os.Signal] {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	return &chanSource[os.Signal]{
		ch:   ch,
		done: make(chan struct{}),
		stop: func() { signal.Stop(ch) },
	}
}

// Ticker delivers a tick every interval.
func Ticker(interval time.Duration) Source[time.Time] {
	t := time.NewTicker(interval)
	return &chanSource[time.Time]{
		ch:   t.C,
		done: make(chan struct{}),
		stop: t.Stop,
	}
}
