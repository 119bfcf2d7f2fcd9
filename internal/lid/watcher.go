package lid

import (
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/evdev"
	"github.com/ydb-platform/lid-manager/internal/reactor"
)

type source struct {
	dev Device
}

func (s *source) Receive() (evdev.Event, error) {
	ev, err := s.dev.ReadEvent()
	if errors.Is(err, evdev.ErrShortRead) {
		return ev, reactor.ErrSpurious
	}
	return ev, err
}

func (s *source) Close() error {
	return s.dev.Close()
}

// Watcher follows one lid switch. Its state is only touched on the reactor
// goroutine.
type Watcher struct {
	path    string
	name    string
	state   State
	docked  bool
	reg     *reactor.Registration
	handler Handler
}

// Watch opens path, verifies it is a lid switch and registers it with r.
func Watch(r *reactor.Reactor, path string, open Opener, h Handler) (*Watcher, error) {
	dev, err := open(path)
	if err != nil {
		return nil, err
	}

	name, err := dev.Name()
	if err != nil {
		dev.Close()
		return nil, err
	}

	types, switches, err := dev.Capabilities()
	if err != nil {
		dev.Close()
		return nil, err
	}
	if !evdev.IsLidSwitch(types, switches) {
		dev.Close()
		return nil, fmt.Errorf("%w: %q (%s)", ErrNotALidDevice, path, name)
	}

	if err := dev.SetMask(evdev.LidMask()...); err != nil {
		klog.Warningf("failed to install event mask on %q, continuing unfiltered: %v", path, err)
	}

	w := &Watcher{
		path:    path,
		name:    name,
		handler: h,
	}
	w.reg = reactor.Add[evdev.Event](r, path, &source{dev: dev}, w.handle)

	klog.Infof("watching lid switch %q (%s)", path, name)
	return w, nil
}

// WatchFirst tries each candidate in order and returns the first one that
// opens as a lid switch.
func WatchFirst(r *reactor.Reactor, paths []string, open Opener, h Handler) (*Watcher, error) {
	var errs []error
	for _, path := range paths {
		w, err := Watch(r, path, open, h)
		if err == nil {
			return w, nil
		}
		klog.V(2).Infof("skipping lid candidate %q: %v", path, err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no lid switch candidates")
	}
	return nil, errors.Join(errs...)
}

func (w *Watcher) handle(ev evdev.Event) {
	klog.V(5).Infof("%q: %s", w.path, &ev)

	switch {
	case ev.IsLid():
		next := Open
		if ev.Value != 0 {
			next = Closed
		}
		prev := w.state
		if prev == next {
			return
		}
		w.state = next
		klog.V(2).Infof("lid %s", next)
		w.notify(Transition{From: prev, To: next, Docked: w.docked})
	case ev.IsDock():
		docked := ev.Value != 0
		if docked == w.docked {
			return
		}
		w.docked = docked
		klog.V(2).Infof("docked: %t", docked)
		w.notify(Transition{From: w.state, To: w.state, Docked: docked})
	}
}

func (w *Watcher) notify(t Transition) {
	if w.handler != nil {
		w.handler.HandleLid(t)
	}
}

func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) Name() string {
	return w.name
}

func (w *Watcher) State() State {
	if w == nil {
		return Unopened
	}
	return w.state
}

func (w *Watcher) Docked() bool {
	return w != nil && w.docked
}

// Active reports whether the device is still delivering events.
func (w *Watcher) Active() bool {
	return w != nil && w.reg.Active()
}

// Close unregisters the device and releases it. It is safe on a nil Watcher
// and on repeated calls.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	return w.reg.Close()
}
