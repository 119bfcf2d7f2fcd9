package prefs

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

const DefaultSchema = "org.gnome.settings-daemon.plugins.power"

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// GSettings reads preferences with the gsettings tool of the session.
type GSettings struct {
	schema  string
	timeout time.Duration
	run     runner
}

func NewGSettings(schema string, timeout time.Duration) *GSettings {
	if schema == "" {
		schema = DefaultSchema
	}
	return &GSettings{
		schema:  schema,
		timeout: timeout,
		run:     execOutput,
	}
}

func (g *GSettings) Preference(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	out, err := g.run(ctx, "gsettings", "get", g.schema, key)
	if err != nil {
		klog.Warningf("failed to read %s %s: %v", g.schema, key, err)
		return "", false
	}
	return unquote(string(out)), true
}

// unquote strips the GVariant text quoting around string values.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}
