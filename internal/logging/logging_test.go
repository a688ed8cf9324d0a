package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")
	log.Info("hello", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("key = %v", record["key"])
	}
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "console")
	log.Info("hello")

	out := buf.String()
	if out == "" {
		t.Fatal("no output")
	}
	if json.Valid(buf.Bytes()) {
		t.Error("console format produced JSON")
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("output %q lacks the message", out)
	}
}

func TestAutoFallsBackToJSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "auto")
	log.Info("hello")

	if !json.Valid(buf.Bytes()) {
		t.Errorf("auto format on a buffer should emit JSON, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info record emitted at warn level: %s", buf.String())
	}

	log.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn record suppressed at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
