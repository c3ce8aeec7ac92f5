package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/focuswin/core/internal/infrastructure/config"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not json: %q", scanner.Text())
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestNewJSONFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(config.LoggerConfig{Level: "info", Format: "json", Output: "file", Filename: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID := uuid.MustParse("6f1c1a52-4b1e-4d53-9a63-0f4bb0a5d2e1")

	log.WithComponent("tasks").WithUserID(userID).Infow("task created", "task_id", "t-1")
	log.Debugw("filtered out")
	log.LogSecurityEvent("login_failed", "10.0.0.1", "email", "a@example.com")
	log.LogRequest(RequestLine{RequestID: "r-1", Method: "GET", Path: "/api/tasks", Status: 500, Latency: 1500 * time.Microsecond})
	_ = log.Close()

	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	first := lines[0]
	if first["msg"] != "task created" || first["component"] != "tasks" || first["user_id"] != userID.String() || first["task_id"] != "t-1" {
		t.Errorf("unexpected first entry %v", first)
	}
	if _, ok := first["ts"]; !ok {
		t.Errorf("expected ts key in %v", first)
	}

	second := lines[1]
	if second["level"] != "warn" || second["security_event"] != "login_failed" || second["email"] != "a@example.com" {
		t.Errorf("unexpected security entry %v", second)
	}

	third := lines[2]
	if third["level"] != "error" || third["duration_ms"] != 1.5 || third["status"] != float64(500) {
		t.Errorf("unexpected request entry %v", third)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggerConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.WithRequestID("r-1").LogRequest(RequestLine{Method: "GET", Path: "/health", Status: 200})
	log.LogUserAction(uuid.New(), "delete_group", "group_id", "g-1")
}
