package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEvent_New(t *testing.T) {
	event := NewEvent("alice", "pve1", OpBridgeCreate)

	if event.User != "alice" {
		t.Errorf("User = %q, want %q", event.User, "alice")
	}
	if event.Host != "pve1" {
		t.Errorf("Host = %q, want %q", event.Host, "pve1")
	}
	if event.Operation != "bridge.create" {
		t.Errorf("Operation = %q, want %q", event.Operation, "bridge.create")
	}
	if event.ID == "" {
		t.Error("ID should not be empty")
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestEvent_Chaining(t *testing.T) {
	event := NewEvent("alice", "pve1", OpBridgeCreate).
		WithTarget("vmbr1").
		WithCommand("ovs-vsctl add-br vmbr1").
		WithSuccess().
		WithDuration(time.Second)

	if event.Target != "vmbr1" {
		t.Errorf("Target = %q", event.Target)
	}
	if event.Command != "ovs-vsctl add-br vmbr1" {
		t.Errorf("Command = %q", event.Command)
	}
	if !event.Success {
		t.Error("Success should be true")
	}
	if event.Duration != time.Second {
		t.Errorf("Duration = %v", event.Duration)
	}
}

func TestEvent_WithError(t *testing.T) {
	event := NewEvent("alice", "pve1", OpBridgeDelete).
		WithError(errors.New("test error"))

	if event.Success {
		t.Error("Success should be false")
	}
	if event.Error != "test error" {
		t.Errorf("Error = %q", event.Error)
	}

	// Test with nil error
	event2 := NewEvent("alice", "pve1", OpBridgeDelete).WithError(nil)
	if event2.Success {
		t.Error("Success should be false even with nil error")
	}
	if event2.Error != "" {
		t.Errorf("Error should be empty with nil error, got %q", event2.Error)
	}
}

func TestEvent_UniqueIDs(t *testing.T) {
	a := NewEvent("alice", "pve1", OpPortAdd)
	b := NewEvent("alice", "pve1", OpPortAdd)
	if a.ID == b.ID {
		t.Errorf("two events share ID %q", a.ID)
	}
}

func TestFileLogger_Basic(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Log an event
	event := NewEvent("alice", "pve1", OpBridgeCreate).
		WithTarget("vmbr1").
		WithSuccess()

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	// Query it back
	events, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	if events[0].User != "alice" {
		t.Errorf("User = %q, want %q", events[0].User, "alice")
	}
	if events[0].Host != "pve1" {
		t.Errorf("Host = %q, want %q", events[0].Host, "pve1")
	}
	if events[0].Target != "vmbr1" {
		t.Errorf("Target = %q, want %q", events[0].Target, "vmbr1")
	}
}

func TestFileLogger_QueryFilters(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Log multiple events
	events := []*Event{
		NewEvent("alice", "pve1", OpBridgeCreate).WithTarget("vmbr1").WithSuccess(),
		NewEvent("bob", "pve1", OpPortAdd).WithTarget("tap100i0").WithSuccess(),
		NewEvent("alice", "pve2", OpMirrorCreate).WithError(errors.New("failed")),
		NewEvent("charlie", "pve3", OpBridgeCreate).WithTarget("vmbr2").WithSuccess(),
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	t.Run("filter by user", func(t *testing.T) {
		results, _ := logger.Query(Filter{User: "alice"})
		if len(results) != 2 {
			t.Errorf("Expected 2 events for alice, got %d", len(results))
		}
	})

	t.Run("filter by host", func(t *testing.T) {
		results, _ := logger.Query(Filter{Host: "pve1"})
		if len(results) != 2 {
			t.Errorf("Expected 2 events for pve1, got %d", len(results))
		}
	})

	t.Run("filter by operation", func(t *testing.T) {
		results, _ := logger.Query(Filter{Operation: OpBridgeCreate})
		if len(results) != 2 {
			t.Errorf("Expected 2 bridge.create events, got %d", len(results))
		}
	})

	t.Run("filter by target", func(t *testing.T) {
		results, _ := logger.Query(Filter{Target: "vmbr1"})
		if len(results) != 1 {
			t.Errorf("Expected 1 event for vmbr1, got %d", len(results))
		}
	})

	t.Run("filter success only", func(t *testing.T) {
		results, _ := logger.Query(Filter{SuccessOnly: true})
		if len(results) != 3 {
			t.Errorf("Expected 3 successful events, got %d", len(results))
		}
	})

	t.Run("filter failure only", func(t *testing.T) {
		results, _ := logger.Query(Filter{FailureOnly: true})
		if len(results) != 1 {
			t.Errorf("Expected 1 failed event, got %d", len(results))
		}
	})

	t.Run("filter with limit", func(t *testing.T) {
		results, _ := logger.Query(Filter{Limit: 2})
		if len(results) != 2 {
			t.Errorf("Expected 2 events with limit, got %d", len(results))
		}
	})

	t.Run("filter with offset", func(t *testing.T) {
		results, _ := logger.Query(Filter{Offset: 2})
		if len(results) != 2 {
			t.Errorf("Expected 2 events with offset, got %d", len(results))
		}
	})
}

func TestFileLogger_QueryTimeFilter(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	logger.Log(NewEvent("alice", "pve1", OpBridgeCreate).WithSuccess())

	// Query with time filters
	results, _ := logger.Query(Filter{
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	})

	if len(results) != 1 {
		t.Errorf("Expected 1 event in time range, got %d", len(results))
	}

	// Query outside time range
	results, _ = logger.Query(Filter{
		StartTime: time.Now().Add(time.Hour),
	})

	if len(results) != 0 {
		t.Errorf("Expected 0 events outside time range, got %d", len(results))
	}

	// Query with end time in the past
	results, _ = logger.Query(Filter{
		EndTime: time.Now().Add(-time.Hour),
	})

	if len(results) != 0 {
		t.Errorf("Expected 0 events before end time, got %d", len(results))
	}
}

func TestFileLogger_CreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "nested", "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger should create directories: %v", err)
	}
	defer logger.Close()
}

func TestFileLogger_QueryNonExistent(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	os.Remove(logPath)

	// Query should return empty, not error
	results, err := logger.Query(Filter{})
	if err != nil {
		t.Errorf("Query on non-existent should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 events, got %d", len(results))
	}
}

func TestDefaultLogger(t *testing.T) {
	// Clear default logger
	SetDefaultLogger(nil)

	// Log with no default should not error
	if err := Log(NewEvent("test", "test", "test")); err != nil {
		t.Errorf("Log with nil default should not error: %v", err)
	}

	// Query with no default should return empty
	results, err := Query(Filter{})
	if err != nil {
		t.Errorf("Query with nil default should not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 results, got %d", len(results))
	}

	// Set up a logger
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	SetDefaultLogger(logger)

	// Now log and query should work
	if err := Log(NewEvent("alice", "pve1", OpBridgeCreate).WithSuccess()); err != nil {
		t.Errorf("Log failed: %v", err)
	}

	results, err = Query(Filter{})
	if err != nil {
		t.Errorf("Query failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}

	// Clean up
	SetDefaultLogger(nil)
}

func TestFileLogger_LogRotation(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	// Set very small max size to trigger rotation
	logger, err := NewFileLogger(logPath, RotationConfig{
		MaxSize:    100, // 100 bytes - will trigger on second log
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Log multiple events to trigger rotation
	for i := 0; i < 5; i++ {
		event := NewEvent("alice", "pve1", OpBridgeCreate).
			WithTarget("vmbr1").
			WithSuccess()
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed on iteration %d: %v", i, err)
		}
	}

	// Check that rotation files were created
	matches, err := filepath.Glob(filepath.Join(tmpDir, "audit.log.*"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}

	// Should have some backup files
	if len(matches) == 0 {
		t.Error("Expected rotation to create backup files")
	}
}

func TestFileLogger_RotationWithCleanup(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	// Set very small max size and low max backups
	logger, err := NewFileLogger(logPath, RotationConfig{
		MaxSize:    50, // Very small to trigger many rotations
		MaxBackups: 2,  // Only keep 2 backups
	})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Log many events to trigger multiple rotations and cleanups
	for i := 0; i < 10; i++ {
		event := NewEvent("alice", "pve1", OpPortAdd)
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed on iteration %d: %v", i, err)
		}
	}

	// Check backup count doesn't exceed MaxBackups
	matches, err := filepath.Glob(filepath.Join(tmpDir, "audit.log.*"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}

	if len(matches) > 2 {
		t.Errorf("Expected at most 2 backup files, got %d", len(matches))
	}
}

func TestFileLogger_NewFileLoggerMkdirError(t *testing.T) {
	// /dev/null is a file, so creating a subdirectory under it must fail
	_, err := NewFileLogger("/dev/null/impossible/audit.log", RotationConfig{})
	if err == nil {
		t.Error("NewFileLogger should fail when directory creation fails")
	}
}

func TestFileLogger_NewFileLoggerOpenError(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a directory where the file should be (can't open directory as file)
	logPath := filepath.Join(tmpDir, "audit.log")
	if err := os.Mkdir(logPath, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	_, err := NewFileLogger(logPath, RotationConfig{})
	if err == nil {
		t.Error("NewFileLogger should fail when log path is a directory")
	}
}

func TestFileLogger_QueryMalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")

	// Write malformed JSON directly to log file
	content := `{"user":"alice","host":"pve1","operation":"bridge.create","success":true}
invalid json line
{"user":"bob","host":"pve2","operation":"port.add","success":true}
`
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test data: %v", err)
	}

	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Query should skip malformed lines
	results, err := logger.Query(Filter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("Expected 2 valid events (skipping malformed), got %d", len(results))
	}
}

func TestFileLogger_QueryOffsetBeyondEvents(t *testing.T) {
	tmpDir := t.TempDir()

	logPath := filepath.Join(tmpDir, "audit.log")
	logger, err := NewFileLogger(logPath, RotationConfig{})
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	// Log a few events
	for i := 0; i < 3; i++ {
		logger.Log(NewEvent("alice", "pve1", OpPortAdd).WithSuccess())
	}

	// Query with offset beyond total events
	results, err := logger.Query(Filter{Offset: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected 0 events with offset beyond total, got %d", len(results))
	}
}

func TestFileLogger_CloseNilFile(t *testing.T) {
	logger := &FileLogger{
		path: "/tmp/test.log",
		file: nil,
	}

	// Close should handle nil file gracefully
	err := logger.Close()
	if err != nil {
		t.Errorf("Close() with nil file should not error: %v", err)
	}
}
