package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"mesworks.org/internal/auth"
	"mesworks.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithIdentity(ctx, auth.Identity{
		Email:       "operator@example.com",
		Role:        auth.RoleUser,
		Permissions: []string{"station:read"},
	})

	if err := LogEvent(ctx, "station.create", map[string]any{"station_id": int64(7)}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "station.create" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["actor"] != "operator@example.com" {
		t.Fatalf("unexpected actor: %v", entry["actor"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["station_id"] != float64(7) {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
