package manager

import (
	"os"
	"syscall"
	"time"

	"github.com/ydb-platform/lid-manager/internal/lid"
	"github.com/ydb-platform/lid-manager/internal/policy"
	"github.com/ydb-platform/lid-manager/internal/power"
	"github.com/ydb-platform/lid-manager/internal/reactor"
	"github.com/ydb-platform/lid-manager/internal/udev"
)

// MonitorFunc opens the change feed for supply.
type MonitorFunc func(supply power.Supply) (power.Monitor, error)

// UdevMonitor watches the power_supply subsystem over the udev netlink socket.
func UdevMonitor(power.Supply) (power.Monitor, error) {
	mon, err := udev.NewMonitor(udev.PowerSupplySubsystem)
	if err != nil {
		return nil, err
	}
	return mon, nil
}

// WatchFunc registers an additional source with the manager's reactor.
type WatchFunc func(r *reactor.Reactor) (*reactor.Registration, error)

type Option interface {
	apply(*Manager)
}

type optionFunc func(*Manager)

func (f optionFunc) apply(m *Manager) {
	f(m)
}

func WithDiscovery(d udev.Discovery) Option {
	return optionFunc(func(m *Manager) {
		m.discovery = d
	})
}

func WithDeviceOpener(open lid.Opener) Option {
	return optionFunc(func(m *Manager) {
		m.openDevice = open
	})
}

func WithMonitor(open MonitorFunc) Option {
	return optionFunc(func(m *Manager) {
		m.openMonitor = open
	})
}

func WithStrategy(s policy.Strategy) Option {
	return optionFunc(func(m *Manager) {
		m.strategy = s
	})
}

// WithSignals replaces the termination signals, SIGINT and SIGTERM by default.
func WithSignals(sigs ...os.Signal) Option {
	return optionFunc(func(m *Manager) {
		m.signals = sigs
	})
}

// WithWatchdog calls ping from the reactor every interval.
func WithWatchdog(interval time.Duration, ping func()) Option {
	return optionFunc(func(m *Manager) {
		m.watchdogInterval = interval
		m.watchdog = ping
	})
}

func WithWatch(w WatchFunc) Option {
	return optionFunc(func(m *Manager) {
		m.watches = append(m.watches, w)
	})
}

var defaultSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
