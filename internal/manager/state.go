package manager

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/lid"
	"github.com/ydb-platform/lid-manager/internal/policy"
	"github.com/ydb-platform/lid-manager/internal/power"
)

// State is a snapshot published after every change the manager observes.
type State struct {
	Lid        lid.State     `json:"lid"`
	Docked     bool          `json:"docked"`
	AC         power.ACState `json:"ac"`
	LidDevice  string        `json:"lidDevice,omitempty"`
	Supply     string        `json:"supply,omitempty"`
	LastAction policy.Action `json:"lastAction"`
	Actions    int           `json:"actions"`
}

func (s State) String() string {
	return fmt.Sprintf("lid=%s docked=%t ac=%s last=%s actions=%d",
		s.Lid, s.Docked, s.AC, s.LastAction, s.Actions)
}

type klogLogger struct{}

func (klogLogger) Info(format string, args ...interface{}) {
	klog.V(2).Infof(format, args...)
}
