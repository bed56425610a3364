package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/tvbatch/pkg/config"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewSetsGlobalLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			if l == nil {
				t.Fatal("Expected logger to be created")
			}
			if zerolog.GlobalLevel() != tt.want {
				t.Errorf("Expected global level %v, got %v", tt.want, zerolog.GlobalLevel())
			}
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "test")

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { l.Debug("probe") }, "probe", "debug"},
		{"info", func() { l.Info("run started") }, "run started", "info"},
		{"warn", func() { l.Warnf("attempt %d failed", 2) }, "attempt 2 failed", "warn"},
		{"error", func() { l.Error("export failed") }, "export failed", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
			if entry["service"] != "tvbatch" {
				t.Errorf("Expected service field, got %v", entry["service"])
			}
		})
	}
}

func TestForRunAndItem(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "test")

	l.ForRun("run-1").ForItem(0, 3, "AAPL").Info("selected")

	entry := decode(t, &buf)
	if entry["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", entry["run_id"])
	}
	if entry["item"] != float64(1) || entry["of"] != float64(3) {
		t.Errorf("Expected item 1 of 3, got %v of %v", entry["item"], entry["of"])
	}
	if entry["symbol"] != "AAPL" {
		t.Errorf("Expected symbol AAPL, got %v", entry["symbol"])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "test")

	l.WithFields(map[string]interface{}{
		"parsed_pnl": 20.5,
		"decision":   "keep",
	}).WithError(errors.New("row not rendered")).Warn("degraded")

	entry := decode(t, &buf)
	if entry["parsed_pnl"] != 20.5 {
		t.Errorf("Expected parsed_pnl 20.5, got %v", entry["parsed_pnl"])
	}
	if entry["decision"] != "keep" {
		t.Errorf("Expected decision keep, got %v", entry["decision"])
	}
	if entry["error"] != "row not rendered" {
		t.Errorf("Expected error field, got %v", entry["error"])
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithField("k", "v").Info("discarded")
}
