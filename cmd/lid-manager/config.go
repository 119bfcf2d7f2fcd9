package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ydb-platform/lid-manager/internal/prefs"
	"github.com/ydb-platform/lid-manager/internal/session"
	"github.com/ydb-platform/lid-manager/internal/udev"
)

const (
	PolicyFixed       = "fixed"
	PolicyPreferences = "preferences"

	SourceFile      = "file"
	SourceGSettings = "gsettings"

	MonitorUdev = "udev"
	MonitorACPI = "acpi"
)

type PreferencesConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`   // YAML file for the file source
	Schema string `yaml:"schema"` // GSettings schema for the gsettings source
}

func (pc *PreferencesConfig) validate() error {
	var errs error
	switch pc.Source {
	case SourceFile:
		if pc.Path == "" {
			errs = errors.Join(errs, fmt.Errorf(".path: must be set for source %q", SourceFile))
		}
	case SourceGSettings:
		if pc.Schema == "" {
			errs = errors.Join(errs, fmt.Errorf(".schema: must be set for source %q", SourceGSettings))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf(".source: %q must be one of %q, %q", pc.Source, SourceFile, SourceGSettings))
	}
	return errs
}

type LidConfig struct {
	Device string `yaml:"device"` // sysname override, e.g. event3
	Tag    string `yaml:"tag"`
}

func (lc *LidConfig) validate() error {
	if lc.Tag == "" {
		return fmt.Errorf(".tag: must be set")
	}
	return nil
}

type PowerConfig struct {
	Supply     string `yaml:"supply"` // sysname override, e.g. AC
	Monitor    string `yaml:"monitor"`
	Reevaluate bool   `yaml:"reevaluate"`
}

func (pc *PowerConfig) validate() error {
	if pc.Monitor != MonitorUdev && pc.Monitor != MonitorACPI {
		return fmt.Errorf(".monitor: %q must be one of %q, %q", pc.Monitor, MonitorUdev, MonitorACPI)
	}
	return nil
}

type SessionConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Inhibit bool          `yaml:"inhibit"`
	Who     string        `yaml:"who"`
	Why     string        `yaml:"why"`
}

func (sc *SessionConfig) validate() error {
	var errs error
	if sc.Timeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf(".timeout: %s must be positive", sc.Timeout))
	}
	if sc.Inhibit && sc.Who == "" {
		errs = errors.Join(errs, fmt.Errorf(".who: must be set when inhibiting"))
	}
	return errs
}

type StatusConfig struct {
	Listen  string `yaml:"listen"`  // host:port for /healthz and /state
	GRPCDir string `yaml:"grpcDir"` // directory for the gRPC health socket
}

func (sc *StatusConfig) validate() error {
	if sc.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(sc.Listen); err != nil {
		return fmt.Errorf(".listen: %q must be host:port: %w", sc.Listen, err)
	}
	return nil
}

type Config struct {
	Policy      string            `yaml:"policy"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Lid         LidConfig         `yaml:"lid"`
	Power       PowerConfig       `yaml:"power"`
	Session     SessionConfig     `yaml:"session"`
	Status      StatusConfig      `yaml:"status"`
}

func defaultConfig() *Config {
	return &Config{
		Policy: PolicyFixed,
		Preferences: PreferencesConfig{
			Source: SourceFile,
			Path:   "/etc/lid-manager/preferences.yaml",
			Schema: prefs.DefaultSchema,
		},
		Lid: LidConfig{
			Tag: udev.TagPowerSwitch,
		},
		Power: PowerConfig{
			Monitor:    MonitorUdev,
			Reevaluate: true,
		},
		Session: SessionConfig{
			Timeout: session.DefaultTimeout,
			Inhibit: true,
			Who:     "lid-manager",
			Why:     "user preference",
		},
	}
}

func (c *Config) validate() error {
	var errs error
	switch c.Policy {
	case PolicyFixed:
	case PolicyPreferences:
		if err := c.Preferences.validate(); err != nil {
			errs = errors.Join(errs, fmt.Errorf(".preferences%w", err))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf(".policy: %q must be one of %q, %q", c.Policy, PolicyFixed, PolicyPreferences))
	}

	if err := c.Lid.validate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf(".lid%w", err))
	}
	if err := c.Power.validate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf(".power%w", err))
	}
	if err := c.Session.validate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf(".session%w", err))
	}
	if err := c.Status.validate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf(".status%w", err))
	}

	return errs
}

// parseConfig overlays the document on the defaults. An empty document
// yields the defaults.
func parseConfig(reader io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	config := defaultConfig()
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}
