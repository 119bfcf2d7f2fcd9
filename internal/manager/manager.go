// Package manager owns every handle of the daemon and connects the watchers
// to the policy and the session actuator.
//
// All callbacks run on the manager's reactor, so the lid and AC state are read
// and written without locking.
package manager

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/lid"
	"github.com/ydb-platform/lid-manager/internal/mux"
	"github.com/ydb-platform/lid-manager/internal/policy"
	"github.com/ydb-platform/lid-manager/internal/power"
	"github.com/ydb-platform/lid-manager/internal/reactor"
	"github.com/ydb-platform/lid-manager/internal/udev"
)

type Actuator interface {
	Execute(ctx context.Context, action policy.Action) error
	Inhibit(ctx context.Context, who, why string) error
	Close() error
}

type Config struct {
	LidDevice string
	LidTag    string

	Supply     string
	Reevaluate bool

	Inhibit bool
	Who     string
	Why     string
}

type Manager struct {
	config Config

	reactor     *reactor.Reactor
	discovery   udev.Discovery
	openDevice  lid.Opener
	openMonitor MonitorFunc
	strategy    policy.Strategy
	actuator    Actuator

	signals          []os.Signal
	watchdogInterval time.Duration
	watchdog         func()
	watches          []WatchFunc

	ctx    context.Context
	lid    *lid.Watcher
	power  *power.Watcher
	regs   []*reactor.Registration
	states *mux.Mux[State]

	lastAction policy.Action
	actions    int

	closeOnce sync.Once
}

func New(config Config, actuator Actuator, opts ...Option) *Manager {
	if config.LidTag == "" {
		config.LidTag = udev.TagPowerSwitch
	}

	m := &Manager{
		config:      config,
		reactor:     reactor.New(),
		openDevice:  lid.OpenDevice,
		openMonitor: UdevMonitor,
		strategy:    policy.Fixed(),
		actuator:    actuator,
		signals:     defaultSignals,
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(m)
	}
	if m.discovery == nil {
		m.discovery = udev.NewDiscovery()
	}

	m.states = mux.Make(
		mux.Buffered[State](16),
		mux.WithLogger[State](klogLogger{}),
	)
	return m
}

// Start enumerates the devices and registers the watchers. Failing to find or
// open a device disables the affected watcher and is not an error.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx

	m.regs = append(m.regs, reactor.Add[os.Signal](m.reactor, "signals", reactor.Signals(m.signals...), func(sig os.Signal) {
		klog.Infof("received signal %q, shutting down", sig.String())
		m.reactor.Stop()
	}))

	m.startLid()
	m.startPower()

	if m.config.Inhibit {
		if err := m.actuator.Inhibit(ctx, m.config.Who, m.config.Why); err != nil {
			klog.Warningf("failed to take over lid switch handling: %v", err)
		}
	}

	for _, watch := range m.watches {
		reg, err := watch(m.reactor)
		if err != nil {
			klog.Warningf("failed to register watch: %v", err)
			continue
		}
		m.regs = append(m.regs, reg)
	}

	if m.watchdogInterval > 0 && m.watchdog != nil {
		m.regs = append(m.regs, reactor.Add[time.Time](m.reactor, "watchdog", reactor.Ticker(m.watchdogInterval), func(time.Time) {
			m.watchdog()
		}))
	}

	m.publish()
	return nil
}

func (m *Manager) startLid() {
	devs, err := udev.FindLidSwitches(m.discovery, m.config.LidTag, m.config.LidDevice)
	if err != nil {
		klog.Warningf("failed to enumerate lid switches, lid handling disabled: %v", err)
		return
	}

	paths := make([]string, 0, len(devs))
	for _, dev := range devs {
		paths = append(paths, dev.DevNode())
	}
	if len(paths) == 0 {
		klog.Warning("no lid switch found, lid handling disabled")
		return
	}

	w, err := lid.WatchFirst(m.reactor, paths, m.openDevice, m)
	if err != nil {
		klog.Warningf("failed to open a lid switch, lid handling disabled: %v", err)
		return
	}
	m.lid = w
}

func (m *Manager) startPower() {
	dev, err := udev.FindACSupply(m.discovery, m.config.Supply)
	if errors.Is(err, udev.ErrNotFound) {
		klog.Info("no AC supply found, assuming battery power")
		return
	}
	if err != nil {
		klog.Warningf("failed to enumerate power supplies, assuming battery power: %v", err)
		return
	}

	supply := power.Supply{Name: dev.Sysname(), Path: string(dev.Id())}
	mon, err := m.openMonitor(supply)
	if err != nil {
		klog.Warningf("failed to monitor %q, assuming battery power: %v", supply.Name, err)
		return
	}
	m.power = power.Watch(m.reactor, supply, mon, m)
}

// Run dispatches events until a termination signal arrives, Stop is called or
// ctx is done.
func (m *Manager) Run(ctx context.Context) {
	klog.Info("entering event loop")
	m.reactor.Run(ctx)
	klog.Info("event loop finished")
}

func (m *Manager) Stop() {
	m.reactor.Stop()
}

// HandleLid runs on the reactor goroutine.
func (m *Manager) HandleLid(t lid.Transition) {
	if t.Closing() {
		m.decide()
	}
	m.publish()
}

// HandlePower runs on the reactor goroutine.
func (m *Manager) HandlePower(prev, next power.ACState) {
	if m.config.Reevaluate && m.lid.State() == lid.Closed && prev.Connected() != next.Connected() {
		klog.V(2).Infof("AC changed to %s with the lid closed, re-evaluating", next)
		m.decide()
	}
	m.publish()
}

func (m *Manager) decide() {
	closed := m.lid.State() == lid.Closed
	connected := m.acConnected()

	action := m.strategy.Decide(closed, connected)
	klog.V(2).Infof("lid closed=%t, AC connected=%t: %s", closed, connected, action)
	if action == policy.NoOp {
		return
	}

	m.lastAction = action
	m.actions++
	if err := m.actuator.Execute(m.ctx, action); err != nil {
		klog.Warningf("%s did not complete: %v", action, err)
	}
}

// acConnected treats a missing supply as battery power. A supply whose online
// attribute is unreadable still counts as connected.
func (m *Manager) acConnected() bool {
	if m.power == nil {
		return false
	}
	return m.power.State().Connected()
}

func (m *Manager) snapshot() State {
	s := State{
		Lid:        m.lid.State(),
		Docked:     m.lid.Docked(),
		AC:         m.power.State(),
		LastAction: m.lastAction,
		Actions:    m.actions,
	}
	if m.lid != nil {
		s.LidDevice = m.lid.Path()
	}
	if m.power != nil {
		s.Supply = m.power.Supply().Name
	}
	return s
}

func (m *Manager) publish() {
	s := m.snapshot()
	klog.V(5).Infof("state: %s", s)
	if err := m.states.Submit(s); err != nil {
		klog.Warningf("failed to publish state: %v", err)
	}
}

// Subscribe delivers every published State to sink. The returned cancel must
// be called before Close; calling it afterwards blocks forever.
func (m *Manager) Subscribe(sink mux.Sink[State]) mux.CancelFunc {
	return m.states.Subscribe(sink)
}

// LidActive reports whether a lid switch is being watched.
func (m *Manager) LidActive() bool {
	return m.lid.Active()
}

// Close releases every handle: lid device, power supply, remaining sources,
// session connection and enumeration, in that order. Cancel every
// subscription first.
func (m *Manager) Close() error {
	var errs []error
	m.closeOnce.Do(func() {
		errs = m.close()
	})
	return errors.Join(errs...)
}

func (m *Manager) close() []error {
	var errs []error
	if err := m.lid.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.power.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, reg := range m.regs {
		if err := reg.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.actuator.Close(); err != nil {
		errs = append(errs, err)
	}
	m.discovery.Close()

	m.reactor.Stop()
	m.reactor.Wait()
	m.states.Close()
	return errs
}
