package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aotnav.log")

	log := New("debug", path)
	log.Info("hello from test")
	if err := log.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file content: %q", data)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aotnav.log")

	log := New("warn", path)
	log.Info("below threshold")
	log.Warn("at threshold")
	_ = log.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "below threshold") {
		t.Error("info line leaked through warn level")
	}
	if !strings.Contains(string(data), "at threshold") {
		t.Error("warn line missing")
	}
}

func TestNew_BadFileFallsBackToStderr(t *testing.T) {
	// A directory is not a writable file; New must still return a logger.
	log := New("info", t.TempDir())
	if log == nil {
		t.Fatal("New returned nil")
	}
	log.Info("still alive")
}
