package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: LevelWarn, Format: "text", Output: &buf})
	defer Init(Config{Level: LevelError, Output: &bytes.Buffer{}})

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "fn", "main")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn were logged:\n%s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "fn=main") {
		t.Errorf("warning missing:\n%s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: LevelDebug, Format: "json", Output: &buf})
	defer Init(Config{Level: LevelError, Output: &bytes.Buffer{}})

	LogAllocation("main", "graph", 2, 3, 40)
	LogPhase("parse", time.Now())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}
	if rec["fn"] != "main" || rec["rounds"] != float64(2) || rec["spills"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}
}
