package main

import (
	"context"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"k8s.io/klog/v2"

	"github.com/ydb-platform/lid-manager/internal/acpi"
	"github.com/ydb-platform/lid-manager/internal/manager"
	"github.com/ydb-platform/lid-manager/internal/mux"
	"github.com/ydb-platform/lid-manager/internal/policy"
	"github.com/ydb-platform/lid-manager/internal/power"
	"github.com/ydb-platform/lid-manager/internal/prefs"
	"github.com/ydb-platform/lid-manager/internal/session"
	"github.com/ydb-platform/lid-manager/internal/status"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := initFlags(os.Args[1:])
	defer klog.Flush()
	config := flags.config

	appContext, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	actuator, err := session.Dial(config.Session.Timeout)
	if err != nil {
		klog.Errorf("failed to reach logind: %v", err)
		return 1
	}

	opts := append(policyOptions(config), manager.WithMonitor(monitorFunc(config)))
	if interval, err := daemon.SdWatchdogEnabled(false); err != nil {
		klog.Warningf("failed to read the watchdog interval: %v", err)
	} else if interval > 0 {
		klog.Infof("pinging the systemd watchdog every %s", interval/2)
		opts = append(opts, manager.WithWatchdog(interval/2, func() {
			daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}))
	}

	m := manager.New(manager.Config{
		LidDevice:  config.Lid.Device,
		LidTag:     config.Lid.Tag,
		Supply:     config.Power.Supply,
		Reevaluate: config.Power.Reevaluate,
		Inhibit:    config.Session.Inhibit,
		Who:        config.Session.Who,
		Why:        config.Session.Why,
	}, actuator, opts...)
	defer m.Close()

	// The status subscription must be cancelled before the manager closes.
	if srv := startStatus(config); srv != nil {
		defer mux.ChainCancelFunc(srv.Follow(m), func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Stop(ctx)
		})()
	}

	if err := m.Start(appContext); err != nil {
		klog.Errorf("failed to start: %v", err)
		return 1
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		klog.Warningf("failed to notify systemd: %v", err)
	}
	m.Run(appContext)
	daemon.SdNotify(false, daemon.SdNotifyStopping)

	return 0
}

func policyOptions(config *Config) []manager.Option {
	if config.Policy != PolicyPreferences {
		return []manager.Option{manager.WithStrategy(policy.Fixed())}
	}

	switch config.Preferences.Source {
	case SourceGSettings:
		store := prefs.NewGSettings(config.Preferences.Schema, config.Session.Timeout)
		return []manager.Option{manager.WithStrategy(policy.New(store))}
	default:
		store, err := prefs.NewFileStore(config.Preferences.Path)
		if err != nil {
			klog.Warningf("no preferences loaded, lid close will do nothing until %q is readable: %v", store.Path(), err)
		}
		return []manager.Option{
			manager.WithStrategy(policy.New(store)),
			manager.WithWatch(store.Watch),
		}
	}
}

func monitorFunc(config *Config) manager.MonitorFunc {
	if config.Power.Monitor != MonitorACPI {
		return manager.UdevMonitor
	}
	return func(supply power.Supply) (power.Monitor, error) {
		mon, err := acpi.Dial(supply.Name)
		if err != nil {
			return nil, err
		}
		return mon, nil
	}
}

func startStatus(config *Config) *status.Server {
	if config.Status.Listen == "" && config.Status.GRPCDir == "" {
		return nil
	}

	srv := status.New()
	if config.Status.Listen != "" {
		if _, err := srv.ServeHTTP(config.Status.Listen); err != nil {
			klog.Warningf("status endpoint disabled: %v", err)
		}
	}
	if config.Status.GRPCDir != "" {
		if _, err := srv.ServeGRPC(config.Status.GRPCDir, config.Session.Who); err != nil {
			klog.Warningf("gRPC health endpoint disabled: %v", err)
		}
	}
	return srv
}
