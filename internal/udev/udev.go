package udev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	libudev "github.com/jochenvg/go-udev"

	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/mux"
)

const (
	InputSubsystem       = "input"
	PowerSupplySubsystem = "power_supply"

	TagPowerSwitch = "power-switch"

	SysAttrType   = "type"
	SysAttrOnline = "online"

	SupplyTypeMains = "Mains"

	// MonitorBufferSize keeps bursts of supply events from being dropped.
	MonitorBufferSize = 1024 * 1024
)

var ErrNotFound = errors.New("udev: no matching device")

type generic struct {
	dev *libudev.Device
}

func (g *generic) Id() Id {
	return Id(g.dev.Syspath())
}

func (g *generic) Sysname() string {
	return g.dev.Sysname()
}

func (g *generic) Subsystem() string {
	return g.dev.Subsystem()
}

func (g *generic) DevNode() string {
	return g.dev.Devnode()
}

func (g *generic) IsInitialized() bool {
	return g.dev.IsInitialized()
}

func (g *generic) Property(key string) string {
	return strings.TrimSpace(g.dev.PropertyValue(key))
}

func (g *generic) SystemAttribute(key string) string {
	return strings.TrimSpace(g.dev.SysattrValue(key))
}

func (g *generic) Tags() []string {
	tags := g.dev.Tags()
	res := make([]string, 0, len(tags))
	for tag := range tags {
		res = append(res, tag)
	}
	return res
}

func (g *generic) Debug() string {
	return fmt.Sprintf("Device[ID=%s, Sysname=%s, Subsystem=%s, DevNode=%s, Initialized=%t, Tags=%v]",
		g.Id(),
		g.Sysname(),
		g.Subsystem(),
		g.DevNode(),
		g.IsInitialized(),
		g.Tags(),
	)
}

type udevDiscovery struct {
	udev libudev.Udev
}

// NewDiscovery returns a Discovery backed by libudev.
func NewDiscovery() Discovery {
	return &udevDiscovery{}
}

func (d *udevDiscovery) Devices(subsystem string, filter mux.FilterFunc[Device]) ([]Device, error) {
	if filter == nil {
		filter = mux.Any[Device]()
	}
	enum := d.udev.NewEnumerate()
	if err := enum.AddMatchSubsystem(subsystem); err != nil {
		return nil, fmt.Errorf("failed to match subsystem %q: %w", subsystem, err)
	}

	devs, err := enum.Devices()
	if err != nil {
		klog.Errorf("Failed to enumerate %q devices: %v", subsystem, err)
		return nil, err
	}

	res := make([]Device, 0, len(devs))
	for _, dev := range devs {
		if dev == nil {
			klog.Error("udev device is nil!")
			continue
		}
		device := &generic{dev: dev}
		if filter(device) {
			klog.V(5).Infof("matched %s", device.Debug())
			res = append(res, device)
		}
	}
	return res, nil
}

func (d *udevDiscovery) Close() {}

// FindLidSwitches returns the input event nodes tagged with tag, in
// enumeration order. A non-empty device, given as sysname or device node,
// restricts the scan to that device.
func FindLidSwitches(d Discovery, tag, device string) ([]Device, error) {
	filters := []mux.FilterFunc[Device]{HasTag(tag), IsInitialized(), HasDevNode()}
	if device != "" {
		filters = append(filters, mux.Or(WithSysname(device), WithDevNode(device)))
	}
	return d.Devices(InputSubsystem, mux.And(filters...))
}

// FindACSupply returns the first power supply of type Mains, or ErrNotFound.
func FindACSupply(d Discovery, sysname string) (Device, error) {
	filters := []mux.FilterFunc[Device]{SystemAttributeEquals(SysAttrType, SupplyTypeMains)}
	if sysname != "" {
		filters = append(filters, WithSysname(sysname))
	}
	devs, err := d.Devices(PowerSupplySubsystem, mux.And(filters...))
	if err != nil {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, ErrNotFound
	}
	return devs[0], nil
}

// Monitor is a netlink hot-plug feed restricted to one subsystem.
type Monitor struct {
	devices <-chan *libudev.Device
	errs    <-chan error
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewMonitor(subsystem string) (*Monitor, error) {
	var u libudev.Udev
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return nil, fmt.Errorf("failed to create udev monitor")
	}
	if err := mon.SetReceiveBufferSize(MonitorBufferSize); err != nil {
		return nil, fmt.Errorf("failed to set monitor receive buffer: %w", err)
	}
	if err := mon.FilterAddMatchSubsystem(subsystem); err != nil {
		return nil, fmt.Errorf("failed to filter monitor on %q: %w", subsystem, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	devCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create device channel: %w", err)
	}

	return &Monitor{
		devices: devCh,
		errs:    errCh,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Receive returns the sysname of the next device the monitor reports.
func (m *Monitor) Receive() (string, error) {
	select {
	case dev, ok := <-m.devices:
		if !ok {
			return "", os.ErrClosed
		}
		klog.V(5).Infof("Received device event (%s): %s", dev.Action(), dev.Syspath())
		return dev.Sysname(), nil
	case err := <-m.errs:
		return "", fmt.Errorf("udev monitor: %w", err)
	case <-m.ctx.Done():
		return "", os.ErrClosed
	}
}

func (m *Monitor) Close() error {
	m.cancel()
	return nil
}
