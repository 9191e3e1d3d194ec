package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{raw: "", want: zerolog.InfoLevel, wantOK: false},
		{raw: "debug", want: zerolog.DebugLevel, wantOK: true},
		{raw: " WARN ", want: zerolog.WarnLevel, wantOK: true},
		{raw: "off", want: zerolog.Disabled, wantOK: true},
		{raw: "loud", want: zerolog.InfoLevel, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestConfigForEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogTimestamp, "nonsense")

	cfg := ConfigFor(ProfileRuntime)
	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if !cfg.NoColor {
		t.Error("NoColor = false, want true")
	}
	if !cfg.Timestamp {
		t.Error("invalid timestamp override should keep the profile default")
	}
}

func TestProfiles(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	if ConfigFor(ProfileVerbose).Level != zerolog.DebugLevel {
		t.Error("verbose profile is not debug")
	}
	if ConfigFor(ProfileRuntime).Level != zerolog.InfoLevel {
		t.Error("runtime profile is not info")
	}
}

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "geniectl", Config{Level: zerolog.DebugLevel, NoColor: true})
	a := NewAdapter(logger, "genie")

	a.Info("display session started", "device", "/dev/ttyUSB0", "baud", 9600)
	a.Error("read failed", "error", errors.New("unplugged"), "dangling")
	a.Debug("queued")

	out := buf.String()
	for _, want := range []string{
		"display session started",
		"device=/dev/ttyUSB0",
		"baud=9600",
		"app=geniectl",
		"component=genie",
		"unplugged",
		"extra=dangling",
		"queued",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAdapterLevel(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(New(&buf, "geniectl", Config{Level: zerolog.InfoLevel, NoColor: true}), "genie")

	a.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug entry written at info level: %s", buf.String())
	}
}
