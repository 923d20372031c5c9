package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("session created", map[string]interface{}{"id": "abc12345"})
	logger.Error("save failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}

	var evt LogEvent
	if err := json.Unmarshal([]byte(lines[0]), &evt); err != nil {
		t.Fatalf("line not JSON: %v", err)
	}
	if evt.Level != "info" || evt.Message != "session created" {
		t.Fatalf("event = %+v", evt)
	}
	if evt.Fields["id"] != "abc12345" {
		t.Fatalf("fields = %v", evt.Fields)
	}
	if evt.Timestamp == "" {
		t.Fatal("timestamp missing")
	}

	if err := json.Unmarshal([]byte(lines[1]), &evt); err != nil {
		t.Fatal(err)
	}
	if evt.Level != "error" {
		t.Fatalf("level = %q, want error", evt.Level)
	}
}

func TestLogger_NilSafe(t *testing.T) {
	NewLogger(nil).Info("discarded", nil)

	var logger *Logger
	logger.Warn("nil receiver must not panic", nil)
}
