// Package session carries out lid actions through systemd-logind.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/policy"
)

const (
	login1Dest    = "org.freedesktop.login1"
	login1Path    = dbus.ObjectPath("/org/freedesktop/login1")
	login1Manager = "org.freedesktop.login1.Manager"

	DefaultTimeout = 10 * time.Second

	InhibitLidSwitch = "handle-lid-switch"
	InhibitBlock     = "block"
)

var ErrRemoteCall = errors.New("session: remote call failed")

// Caller is the method call half of dbus.BusObject.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

type Actuator struct {
	obj     Caller
	conn    *dbus.Conn
	timeout time.Duration
	inhibit *os.File
}

func New(obj Caller, timeout time.Duration) *Actuator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Actuator{
		obj:     obj,
		timeout: timeout,
	}
}

// Dial connects to logind on the system bus.
func Dial(timeout time.Duration) (*Actuator, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the system bus: %w", err)
	}
	a := New(conn.Object(login1Dest, login1Path), timeout)
	a.conn = conn
	return a, nil
}

func (a *Actuator) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	klog.V(2).Infof("calling %s%v", method, args)
	c := a.obj.CallWithContext(ctx, login1Manager+"."+method, 0, args...)
	if c.Err != nil {
		c.Err = fmt.Errorf("%w: %s: %v", ErrRemoteCall, method, c.Err)
	}
	return c
}

func (a *Actuator) LockSessions(ctx context.Context) error {
	return a.call(ctx, "LockSessions").Err
}

func (a *Actuator) Suspend(ctx context.Context) error {
	return a.call(ctx, "Suspend", false).Err
}

func (a *Actuator) Hibernate(ctx context.Context) error {
	return a.call(ctx, "Hibernate", false).Err
}

func (a *Actuator) PowerOff(ctx context.Context) error {
	return a.call(ctx, "PowerOff", false).Err
}

// Inhibit takes a lid switch inhibitor lock. The lock is held until Close.
func (a *Actuator) Inhibit(ctx context.Context, who, why string) error {
	c := a.call(ctx, "Inhibit", InhibitLidSwitch, who, why, InhibitBlock)
	if c.Err != nil {
		return c.Err
	}

	var fd dbus.UnixFD
	if err := c.Store(&fd); err != nil {
		return fmt.Errorf("%w: Inhibit: %v", ErrRemoteCall, err)
	}
	if a.inhibit != nil {
		a.inhibit.Close()
	}
	a.inhibit = os.NewFile(uintptr(fd), "inhibit")
	klog.Infof("holding %s inhibitor as %q", InhibitLidSwitch, who)
	return nil
}

func (a *Actuator) Inhibited() bool {
	return a.inhibit != nil
}

// Execute runs action. Both steps of a compound action are always attempted
// and every failure is logged.
func (a *Actuator) Execute(ctx context.Context, action policy.Action) error {
	klog.Infof("executing %s", action)

	var steps []func(context.Context) error
	switch action {
	case policy.NoOp:
	case policy.Lock:
		steps = append(steps, a.LockSessions)
	case policy.LockThenSuspend:
		steps = append(steps, a.LockSessions, a.Suspend)
	case policy.LockThenHibernate:
		steps = append(steps, a.LockSessions, a.Hibernate)
	case policy.Shutdown:
		steps = append(steps, a.PowerOff)
	case policy.LogOut:
		klog.Infof("log-out has no session call, ignoring")
	default:
		return fmt.Errorf("unknown action %s", action)
	}

	var errs []error
	for _, step := range steps {
		if err := step(ctx); err != nil {
			klog.Errorf("%s: %v", action, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close drops the inhibitor lock and the bus connection.
func (a *Actuator) Close() error {
	var errs []error
	if a.inhibit != nil {
		errs = append(errs, a.inhibit.Close())
		a.inhibit = nil
	}
	if a.conn != nil {
		errs = append(errs, a.conn.Close())
		a.conn = nil
	}
	return errors.Join(errs...)
}
