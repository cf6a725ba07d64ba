package nexttick

import (
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/joeycumines/logiface"
)

// Config mirrors an optional YAML configuration file, mapping onto
// construction knobs for the reference [Loop] and logging. It exists for
// hosts and example programs that want file-driven setup; the scheduler
// itself needs none of it.
type Config struct {
	// LogLevel is the minimum structured log level, one of "trace",
	// "debug", "info", "notice", "warning", "err". Defaults to "info".
	LogLevel string `yaml:"log_level"`

	// Quirks lists simulated host defects for the reference loop, by the
	// names of [Quirk.String]: "shimmed-microtasks", "broken-observer",
	// "microtask-starvation". Unknown names are ignored.
	Quirks []string `yaml:"quirks"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

// LoadConfig reads YAML and overrides defaults; an empty path or an
// unreadable or malformed file yields defaults only.
func LoadConfig(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg
}

// Level resolves LogLevel to a logiface level, defaulting to informational.
func (c Config) Level() logiface.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "trace":
		return logiface.LevelTrace
	case "debug":
		return logiface.LevelDebug
	case "notice":
		return logiface.LevelNotice
	case "warning", "warn":
		return logiface.LevelWarning
	case "err", "error":
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

// HostQuirks resolves Quirks to a [Quirk] mask, skipping unknown names.
func (c Config) HostQuirks() Quirk {
	var q Quirk
	for _, name := range c.Quirks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "shimmed-microtasks":
			q |= QuirkShimmedMicrotasks
		case "broken-observer":
			q |= QuirkBrokenObserver
		case "microtask-starvation":
			q |= QuirkMicrotaskStarvation
		}
	}
	return q
}
