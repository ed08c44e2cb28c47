package logger

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want hclog.Level
	}{
		{"TRACE", hclog.Trace},
		{"DEBUG", hclog.Debug},
		{"INFO", hclog.Info},
		{"WARN", hclog.Warn},
		{"ERROR", hclog.Error},
		{"bogus", hclog.Info},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExplicitLevelBeatsEnv(t *testing.T) {
	t.Setenv("CAPSLOCK_LOG_LEVEL", "error")
	if got := determineLogLevel("debug"); got != hclog.Debug {
		t.Errorf("determineLogLevel = %v, want debug", got)
	}
	if got := determineLogLevel(""); got != hclog.Error {
		t.Errorf("determineLogLevel from env = %v, want error", got)
	}
}

func TestNewLoggerName(t *testing.T) {
	log := New("capslock", Options{Level: "warn"})
	if log.Name() != "capslock" {
		t.Errorf("logger name = %q", log.Name())
	}
	if !log.IsWarn() {
		t.Error("warn level not applied")
	}
}
