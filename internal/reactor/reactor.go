// Package reactor runs callbacks for readable event sources one at a time on a
// single goroutine.
//
// Each registered Source is drained by its own pump goroutine, which blocks in
// Receive and hands every received value to the reactor goroutine. Handlers
// therefore never run concurrently with each other and may share state
// without locking.
package reactor

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"
)

// ErrSpurious is returned by Receive when a wakeup carried nothing usable.
// The value is dropped and the source keeps being polled.
var ErrSpurious = errors.New("reactor: spurious wakeup")

// Source is a blocking event feed. Close must unblock a pending Receive.
type Source[T any] interface {
	Receive() (T, error)
	Close() error
}

type Reactor struct {
	calls   chan func()
	stop    chan struct{}
	stopped sync.Once
	pumps   sync.WaitGroup
}

func New() *Reactor {
	return &Reactor{
		calls: make(chan func()),
		stop:  make(chan struct{}),
	}
}

// Run dispatches callbacks until ctx is done or Stop is called.
func (r *Reactor) Run(ctx context.Context) {
	for {
		select {
		case call := <-r.calls:
			call()
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop makes Run return after the callback in progress, if any.
func (r *Reactor) Stop() {
	r.stopped.Do(func() { close(r.stop) })
}

// Post schedules f on the reactor goroutine. It returns false when the
// reactor is stopped before f could be queued.
func (r *Reactor) Post(f func()) bool {
	select {
	case r.calls <- f:
		return true
	case <-r.stop:
		return false
	}
}

// Wait blocks until every pump goroutine has exited.
func (r *Reactor) Wait() {
	r.pumps.Wait()
}

// Registration ties a Source to the reactor. Closing it releases the source
// and the registration together.
type Registration struct {
	name   string
	closer io.Closer
	closed atomic.Bool
	done   chan struct{}
	exited chan struct{}
	err    error
}

func (reg *Registration) Name() string {
	return reg.name
}

// Active reports whether the source is still delivering.
func (reg *Registration) Active() bool {
	select {
	case <-reg.exited:
		return false
	default:
		return !reg.closed.Load()
	}
}

// Err returns the error that made the source stop delivering, if any.
func (reg *Registration) Err() error {
	select {
	case <-reg.exited:
		return reg.err
	default:
		return nil
	}
}

// Close is idempotent and safe to call from a handler.
func (reg *Registration) Close() error {
	if reg == nil || !reg.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(reg.done)
	err := reg.closer.Close()
	<-reg.exited
	return err
}

// Add registers src and calls handle on the reactor goroutine for every value
// it delivers.
func Add[T any](r *Reactor, name string, src Source[T], handle func(T)) *Registration {
	reg := &Registration{
		name:   name,
		closer: src,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	r.pumps.Add(1)
	go func() {
		defer r.pumps.Done()
		defer close(reg.exited)
		for {
			v, err := src.Receive()
			if err != nil {
				if errors.Is(err, ErrSpurious) {
					klog.V(5).Infof("%q: spurious wakeup ignored", name)
					continue
				}
				if reg.closed.Load() || isClosed(err) {
					klog.V(2).Infof("%q: source closed", name)
					return
				}
				klog.Errorf("%q: source failed, unregistering: %v", name, err)
				reg.err = err
				return
			}

			call := func() {
				if !reg.closed.Load() {
					handle(v)
				}
			}
			select {
			case r.calls <- call:
			case <-reg.done:
				return
			case <-r.stop:
				return
			}
		}
	}()

	return reg
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
