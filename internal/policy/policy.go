// Package policy maps the lid and AC state to a session action.
package policy

import (
	"fmt"
)

type Action int

const (
	NoOp Action = iota
	Lock
	LockThenSuspend
	LockThenHibernate
	Shutdown
	LogOut
)

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a Action) String() string {
	switch a {
	case NoOp:
		return "no-op"
	case Lock:
		return "lock"
	case LockThenSuspend:
		return "lock-then-suspend"
	case LockThenHibernate:
		return "lock-then-hibernate"
	case Shutdown:
		return "shutdown"
	case LogOut:
		return "log-out"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

const (
	KeyACAction      = "lid-close-ac-action"
	KeyBatteryAction = "lid-close-battery-action"
)

// PreferenceSource reads a string preference. ok is false when the key is
// absent or could not be read.
type PreferenceSource interface {
	Preference(key string) (value string, ok bool)
}

// Key returns the preference key consulted for the given AC state.
func Key(acConnected bool) string {
	if acConnected {
		return KeyACAction
	}
	return KeyBatteryAction
}

// Parse maps a preference value to an action. Unknown values are NoOp.
func Parse(value string) Action {
	switch value {
	case "blank":
		return Lock
	case "suspend":
		return LockThenSuspend
	case "shutdown":
		return Shutdown
	case "hibernate":
		return LockThenHibernate
	case "logout":
		return LogOut
	}
	return NoOp
}

// Decide is pure. A nil prefs selects the fixed variant: lock on mains,
// lock and suspend on battery.
func Decide(lidClosed, acConnected bool, prefs PreferenceSource) Action {
	if !lidClosed {
		return NoOp
	}
	if prefs == nil {
		if acConnected {
			return Lock
		}
		return LockThenSuspend
	}
	value, ok := prefs.Preference(Key(acConnected))
	if !ok {
		return NoOp
	}
	return Parse(value)
}

// Strategy is the decision hook the watchers share.
type Strategy interface {
	Decide(lidClosed, acConnected bool) Action
}

type StrategyFunc func(lidClosed, acConnected bool) Action

func (f StrategyFunc) Decide(lidClosed, acConnected bool) Action {
	return f(lidClosed, acConnected)
}

// New returns the strategy backed by prefs, or the fixed one for nil.
func New(prefs PreferenceSource) Strategy {
	return StrategyFunc(func(lidClosed, acConnected bool) Action {
		return Decide(lidClosed, acConnected, prefs)
	})
}

// Fixed is the strategy used without a preference store.
func Fixed() Strategy {
	return New(nil)
}
