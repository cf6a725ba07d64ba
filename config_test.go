package nexttick

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig("")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Quirks)
	assert.Equal(t, logiface.LevelInformational, cfg.Level())
	assert.Equal(t, Quirk(0), cfg.HostQuirks())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"log_level: debug\nquirks:\n  - microtask-starvation\n  - broken-observer\n",
	), 0o644))

	cfg := LoadConfig(path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, logiface.LevelDebug, cfg.Level())
	assert.Equal(t, QuirkMicrotaskStarvation|QuirkBrokenObserver, cfg.HostQuirks())
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	cfg := LoadConfig(path)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestConfig_Level(t *testing.T) {
	for input, want := range map[string]logiface.Level{
		"trace":     logiface.LevelTrace,
		"debug":     logiface.LevelDebug,
		"info":      logiface.LevelInformational,
		"notice":    logiface.LevelNotice,
		"warning":   logiface.LevelWarning,
		"warn":      logiface.LevelWarning,
		"err":       logiface.LevelError,
		"error":     logiface.LevelError,
		" DEBUG ":   logiface.LevelDebug,
		"":          logiface.LevelInformational,
		"gibberish": logiface.LevelInformational,
	} {
		assert.Equalf(t, want, Config{LogLevel: input}.Level(), "input %q", input)
	}
}

func TestConfig_HostQuirks_SkipsUnknown(t *testing.T) {
	cfg := Config{Quirks: []string{"shimmed-microtasks", "flux-capacitor", " Broken-Observer "}}
	assert.Equal(t, QuirkShimmedMicrotasks|QuirkBrokenObserver, cfg.HostQuirks())
}
