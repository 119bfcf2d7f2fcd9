package udev_test

import (
	"errors"

	"github.com/ydb-platform/lid-manager/internal/mux"
	"github.com/ydb-platform/lid-manager/internal/udev"
)

type fakeDevice struct {
	syspath     string
	sysname     string
	subsystem   string
	devnode     string
	initialized bool
	tags        []string
	attrs       map[string]string
}

func (f *fakeDevice) Id() udev.Id                     { return udev.Id(f.syspath) }
func (f *fakeDevice) Sysname() string                 { return f.sysname }
func (f *fakeDevice) Subsystem() string               { return f.subsystem }
func (f *fakeDevice) DevNode() string                 { return f.devnode }
func (f *fakeDevice) IsInitialized() bool             { return f.initialized }
func (f *fakeDevice) Property(string) string          { return "" }
func (f *fakeDevice) SystemAttribute(k string) string { return f.attrs[k] }
func (f *fakeDevice) Tags() []string                  { return f.tags }
func (f *fakeDevice) Debug() string                   { return f.syspath }

type fakeDiscovery struct {
	devices []udev.Device
	err     error
}

func (f *fakeDiscovery) Devices(subsystem string, filter mux.FilterFunc[udev.Device]) ([]udev.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return mux.Select(f.devices, mux.And(func(d udev.Device) bool {
		return d.Subsystem() == subsystem
	}, filter)), nil
}

func (f *fakeDiscovery) Close() {}

var errScan = errors.New("scan failed")
