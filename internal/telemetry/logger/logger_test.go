package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// resetLevel restores the shared level after a test changes it.
func resetLevel(t *testing.T) {
	t.Helper()
	prev := level.Level()
	t.Cleanup(func() { level.Set(prev) })
}

func TestNew_Formats(t *testing.T) {
	resetLevel(t)
	tests := []struct {
		format  string
		prefix  string
		wantErr bool
	}{
		{"", "{", false},
		{"json", "{", false},
		{"text", "time=", false},
		{"Console", "time=", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Format: tt.format, Output: &buf})
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() should reject unknown format")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.Info("hello")
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("output %q does not start with %q", buf.String(), tt.prefix)
			}
		})
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	resetLevel(t)
	if _, err := New(Config{Level: "verbose"}); err == nil {
		t.Error("New() should reject unknown level")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	resetLevel(t)
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	lines := decode(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "WARN" || lines[1]["level"] != "ERROR" {
		t.Errorf("levels = %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestSetLevel_AffectsExistingLoggers(t *testing.T) {
	resetLevel(t)
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	member := l.With("component", "member")

	l.Debug("hidden")
	changed, err := SetLevel("debug")
	if err != nil || !changed {
		t.Fatalf("SetLevel(debug) = %v, %v", changed, err)
	}
	member.Debug("shown")

	lines := decode(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0]["component"] != "member" {
		t.Errorf("component = %v, want member", lines[0]["component"])
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}
}

func TestSetLevel(t *testing.T) {
	resetLevel(t)
	level.Set(slog.LevelInfo)

	tests := []struct {
		name        string
		wantChanged bool
		wantLevel   string
		wantErr     bool
	}{
		{"info", false, "info", false},
		{"warning", true, "warn", false},
		{"WARN", false, "warn", false},
		{"error", true, "error", false},
		{"loud", false, "error", true},
	}
	for _, tt := range tests {
		changed, err := SetLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SetLevel(%q) error = %v", tt.name, err)
		}
		if changed != tt.wantChanged {
			t.Errorf("SetLevel(%q) changed = %v, want %v", tt.name, changed, tt.wantChanged)
		}
		if got := GetLevel(); got != tt.wantLevel {
			t.Errorf("after SetLevel(%q) GetLevel() = %q, want %q", tt.name, got, tt.wantLevel)
		}
	}
}

func TestSlog_SharesRedaction(t *testing.T) {
	resetLevel(t)
	var buf bytes.Buffer
	l, err := New(Config{Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Slog().Info("login", "login_id", "test", "password", "test!")

	line := decode(t, &buf)[0]
	if line["password"] != redactedValue {
		t.Errorf("password = %v, want redacted", line["password"])
	}
	if line["login_id"] != "test" {
		t.Errorf("login_id = %v, want test", line["login_id"])
	}
}

func TestSetDefault(t *testing.T) {
	resetLevel(t)
	prev, prevSlog := Default(), slog.Default()
	t.Cleanup(func() {
		SetDefault(prev)
		slog.SetDefault(prevSlog)
	})

	var buf bytes.Buffer
	l, err := New(Config{Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	SetDefault(l)

	Default().Info("from default")
	slog.Info("from slog", "token", "abc")

	lines := decode(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1]["token"] != redactedValue {
		t.Errorf("slog default should redact, token = %v", lines[1]["token"])
	}
}
