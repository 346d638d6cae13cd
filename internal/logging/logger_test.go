package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(WarnLevel, &buf)

	l.Debug("not logged")
	l.Info("not logged")
	l.Warn("logged")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if entry["message"] != "logged" {
		t.Fatalf("message = %v, want %q", entry["message"], "logged")
	}
	if entry["level"] != "WARN" {
		t.Fatalf("level = %v, want WARN", entry["level"])
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(InfoLevel, &buf).WithFields(map[string]interface{}{
		"service": "fisopt",
	})

	l.Info("started", map[string]interface{}{"port": 8080})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if entry["service"] != "fisopt" {
		t.Fatalf("service = %v", entry["service"])
	}
	if entry["port"] != float64(8080) {
		t.Fatalf("port = %v", entry["port"])
	}
}

func TestLoggerWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(InfoLevel, &buf)
	_ = parent.WithField("k", "v")

	parent.Info("plain")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if _, ok := entry["k"]; ok {
		t.Fatal("child field leaked into parent logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"WARN", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"garbage", InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
