// Package acpi listens to the kernel's acpi_event generic netlink family and
// turns AC adapter notifications into supply change notices.
package acpi

import (
	"errors"
	"fmt"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/reactor"
)

const (
	familyName = "acpi_event"
	groupName  = "acpi_mc_group"

	attrEvent = 1
)

var ErrNoGroup = errors.New("acpi: multicast group not found")

type conn interface {
	Receive() ([]genetlink.Message, []netlink.Message, error)
	Close() error
}

// Monitor reports supply for every ac_adapter event. Other ACPI events are
// consumed as spurious wakeups.
type Monitor struct {
	conn    conn
	supply  string
	pending []Event
}

func Dial(supply string) (*Monitor, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial generic netlink: %w", err)
	}

	fam, err := c.GetFamily(familyName)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to resolve %q family: %w", familyName, err)
	}

	var id uint32
	found := false
	for _, g := range fam.Groups {
		if g.Name == groupName {
			id = g.ID
			found = true
		}
	}
	if !found {
		c.Close()
		return nil, fmt.Errorf("%w: %q", ErrNoGroup, groupName)
	}

	if err := c.JoinGroup(id); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to join %q: %w", groupName, err)
	}

	return newMonitor(c, supply), nil
}

func newMonitor(c conn, supply string) *Monitor {
	return &Monitor{conn: c, supply: supply}
}

func decodeMessages(msgs []genetlink.Message) []Event {
	var events []Event
	for _, msg := range msgs {
		ad, err := netlink.NewAttributeDecoder(msg.Data)
		if err != nil {
			klog.Warningf("failed to decode acpi message: %v", err)
			continue
		}
		for ad.Next() {
			if ad.Type() != attrEvent {
				continue
			}
			ev, err := parseEvent(ad.Bytes())
			if err != nil {
				klog.Warningf("%v", err)
				continue
			}
			klog.V(5).Infof("acpi event: %s", ev)
			events = append(events, ev)
		}
		if err := ad.Err(); err != nil {
			klog.Warningf("failed to decode acpi attributes: %v", err)
		}
	}
	return events
}

func (m *Monitor) Receive() (string, error) {
	if len(m.pending) == 0 {
		msgs, _, err := m.conn.Receive()
		if err != nil {
			return "", err
		}
		m.pending = decodeMessages(msgs)
	}

	for len(m.pending) > 0 {
		ev := m.pending[0]
		m.pending = m.pending[1:]
		if ev.DeviceClass == ClassACAdapter {
			return m.supply, nil
		}
	}
	return "", reactor.ErrSpurious
}

func (m *Monitor) Close() error {
	return m.conn.Close()
}
