package udev

import (
	"github.com/ydb-platform/lid-manager/internal/mux"
)

type Id string

type Device interface {
	Id() Id
	Sysname() string
	Subsystem() string
	DevNode() string
	IsInitialized() bool
	Property(string) string
	SystemAttribute(string) string
	Tags() []string

	Debug() string
}

// Discovery performs one-shot scans of the device tree.
type Discovery interface {
	// Devices lists the devices of subsystem accepted by filter.
	Devices(subsystem string, filter mux.FilterFunc[Device]) ([]Device, error)
	Close()
}

func HasTag(tag string) mux.FilterFunc[Device] {
	return func(dev Device) bool {
		for _, t := range dev.Tags() {
			if t == tag {
				return true
			}
		}
		return false
	}
}

func IsInitialized() mux.FilterFunc[Device] {
	return func(dev Device) bool {
		return dev.IsInitialized()
	}
}

func SystemAttributeEquals(key, value string) mux.FilterFunc[Device] {
	return func(dev Device) bool {
		return dev.SystemAttribute(key) == value
	}
}

func HasDevNode() mux.FilterFunc[Device] {
	return func(dev Device) bool {
		return dev.DevNode() != ""
	}
}

func WithDevNode(path string) mux.FilterFunc[Device] {
	return func(dev Device) bool {
		return dev.DevNode() == path
	}
}

func WithSysname(name string) mux.FilterFunc[Device] {
	return func(dev Device) bool {
		return dev.Sysname() == name
	}
}
