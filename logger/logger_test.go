package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := LogJSON(dir, "trace1", map[string]int{"cost": 42}); err != nil {
		t.Fatalf("LogJSON: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "trace1.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["cost"] != 42 {
		t.Fatalf("got %v, want cost=42", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "trace1.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected .tmp file to be renamed away")
	}
}

func TestInitLogsClearsJSON(t *testing.T) {
	dir := t.TempDir()
	if err := LogJSON(dir, "stale", "x"); err != nil {
		t.Fatalf("LogJSON: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := InitLogs(dir); err != nil {
		t.Fatalf("InitLogs: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.json")); !os.IsNotExist(err) {
		t.Fatalf("expected stale.json to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("expected keep.txt to survive InitLogs: %v", err)
	}
}
