// Package power tracks whether the machine runs on mains power.
package power

import (
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/reactor"
)

// Supply identifies a power_supply device by sysname and sysfs path.
type Supply struct {
	Name string
	Path string
}

// Monitor delivers the name of every supply the kernel reports a change for.
type Monitor interface {
	Receive() (string, error)
	Close() error
}

type Handler interface {
	HandlePower(prev, next ACState)
}

type HandlerFunc func(prev, next ACState)

func (f HandlerFunc) HandlePower(prev, next ACState) {
	f(prev, next)
}

// Watcher caches the AC state of one supply. The cache is refreshed once on
// Watch and on every notification naming the supply.
type Watcher struct {
	supply  Supply
	state   ACState
	reg     *reactor.Registration
	handler Handler
}

func Watch(r *reactor.Reactor, supply Supply, mon Monitor, h Handler) *Watcher {
	w := &Watcher{
		supply:  supply,
		handler: h,
	}

	online, err := ReadOnline(supply.Path)
	if err != nil {
		klog.Warningf("failed to read initial state of %q, assuming mains: %v", supply.Name, err)
	} else {
		w.state = FromOnline(online)
	}
	klog.Infof("watching power supply %q, AC %s", supply.Name, w.state)

	w.reg = reactor.Add[string](r, supply.Name, mon, w.handle)
	return w
}

func (w *Watcher) handle(sysname string) {
	if sysname != w.supply.Name {
		klog.V(5).Infof("ignoring change on %q", sysname)
		return
	}

	online, err := ReadOnline(w.supply.Path)
	if err != nil {
		klog.Warningf("discarding state of %q: %v", w.supply.Name, err)
		return
	}

	prev, next := w.state, FromOnline(online)
	if prev == next {
		return
	}
	w.state = next
	klog.V(2).Infof("AC %s", next)
	if w.handler != nil {
		w.handler.HandlePower(prev, next)
	}
}

func (w *Watcher) Supply() Supply {
	return w.supply
}

// State is Unknown for a nil Watcher.
func (w *Watcher) State() ACState {
	if w == nil {
		return Unknown
	}
	return w.state
}

func (w *Watcher) Active() bool {
	return w != nil && w.reg.Active()
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	return w.reg.Close()
}
