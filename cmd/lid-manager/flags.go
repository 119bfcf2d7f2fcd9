package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"k8s.io/klog/v2"
)

type configSource interface {
	String() string
	open() (io.Reader, func() error, error)
}

type fileConfigSource struct {
	path string
}

func (fcs *fileConfigSource) open() (io.Reader, func() error, error) {
	file, err := os.Open(fcs.path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

func (fcs *fileConfigSource) String() string {
	return "file:" + fcs.path
}

type envConfigSource struct {
	variable string
}

func (ecs *envConfigSource) open() (io.Reader, func() error, error) {
	data := os.Getenv(ecs.variable)
	if data == "" {
		return nil, nil, fmt.Errorf("config: environment variable %s is not set", ecs.variable)
	}
	return strings.NewReader(data), func() error { return nil }, nil
}

func (ecs *envConfigSource) String() string {
	return "env:" + ecs.variable
}

type stdinConfigSource struct{}

func (scs *stdinConfigSource) open() (io.Reader, func() error, error) {
	return os.Stdin, func() error { return nil }, nil
}

func (scs *stdinConfigSource) String() string {
	return "stdin"
}

type ConfigFlag struct {
	configSource
}

func (cf *ConfigFlag) Set(value string) error {
	switch {
	case strings.HasPrefix(value, "file:"):
		cf.configSource = &fileConfigSource{path: strings.TrimPrefix(value, "file:")}
	case strings.HasPrefix(value, "env:"):
		cf.configSource = &envConfigSource{variable: strings.TrimPrefix(value, "env:")}
	case value == "stdin":
		cf.configSource = &stdinConfigSource{}
	default:
		return fmt.Errorf("invalid config source: %s", value)
	}
	return nil
}

func (cf *ConfigFlag) String() string {
	if cf.configSource == nil {
		return ""
	}
	return cf.configSource.String()
}

type FlagValues struct {
	Config ConfigFlag

	config *Config
}

// loadConfig returns the defaults when no --config was given.
func (fv *FlagValues) loadConfig() (*Config, error) {
	if fv.Config.configSource == nil {
		config := defaultConfig()
		return config, config.validate()
	}

	reader, closer, err := fv.Config.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open --config %q: %w", fv.Config.String(), err)
	}
	defer closer()

	config, err := parseConfig(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse --config %q: %w", fv.Config.String(), err)
	}
	return config, nil
}

func initFlags(args []string) FlagValues {
	values := FlagValues{}
	flags := flag.NewFlagSet("lid-manager", flag.ExitOnError)
	klog.InitFlags(flags)
	flags.Var(&values.Config, "config", `optional configuration source (in form "file:<path>", "env:<ENV_VARIABLE>" or "stdin")`)
	flags.Parse(args)

	config, err := values.loadConfig()
	if err != nil {
		klog.Fatalf("%v", err)
	}
	values.config = config

	return values
}
