package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the home directory at a temporary directory and resets global state
func setupTestDir(t *testing.T) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	// Save original state
	origLogDir := logDir
	origInitErr := initErr
	origRunID := runID

	// Reset global state
	logDir = ""
	initErr = nil
	initOnce = sync.Once{}
	runID = ""
	runIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = sync.Once{}
		runID = origRunID
		runIDOnce = sync.Once{}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"quiet", LevelQuiet, false},
		{"normal", LevelNormal, false},
		{"", LevelNormal, false},
		{"verbose", LevelVerbose, false},
		{"debug", LevelDebug, false},
		{"trace", LevelNormal, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		level   Level
		want    []string
		notWant []string
	}{
		{
			level:   LevelQuiet,
			want:    []string{"Warning: careful", "Error: broken"},
			notWant: []string{"hello", "done", "poll 1", "tab https://example.com/", "initial → polling"},
		},
		{
			level:   LevelNormal,
			want:    []string{"hello", "✓ done", "initial → polling", "Warning: careful"},
			notWant: []string{"poll 1", "tab https://example.com/"},
		},
		{
			level:   LevelVerbose,
			want:    []string{"hello", "→ poll 1"},
			notWant: []string{"tab https://example.com/"},
		},
		{
			level: LevelDebug,
			want:  []string{"hello", "→ poll 1", "[DEBUG] tab https://example.com/"},
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := NewLogger("test", tt.level, &buf)

		logger.Infof("hello")
		logger.Successf("done")
		logger.Phase("initial", "polling")
		logger.Warningf("careful")
		logger.Errorf("broken")
		logger.Verbosef("poll %d", 1)
		logger.Debugf("tab %s", "https://example.com/")

		out := buf.String()
		for _, s := range tt.want {
			if !strings.Contains(out, s) {
				t.Errorf("level %d: output missing %q\n%s", tt.level, s, out)
			}
		}
		for _, s := range tt.notWant {
			if strings.Contains(out, s) {
				t.Errorf("level %d: output unexpectedly contains %q\n%s", tt.level, s, out)
			}
		}
	}
}

func TestLoggerOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("test", LevelNormal, &buf)

	logger.Infof("one")
	logger.Infof("two")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
}

func TestEnableFile(t *testing.T) {
	setupTestDir(t)

	var buf bytes.Buffer
	logger := NewLogger("tabwatch", LevelQuiet, &buf)
	if err := logger.EnableFile(); err != nil {
		t.Fatalf("Failed to enable file logging: %v", err)
	}
	defer logger.Close()

	logger.Infof("Info message")
	logger.Debugf("Debug message")
	logger.Warningf("Warning message")

	content, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	// The file gets every line regardless of console verbosity.
	expectedPatterns := []string{
		"[tabwatch] [INFO] Info message",
		"[tabwatch] [DEBUG] Debug message",
		"[tabwatch] [WARN] Warning message",
	}
	for _, pattern := range expectedPatterns {
		if !strings.Contains(string(content), pattern) {
			t.Errorf("Log content missing expected pattern: %q\nContent:\n%s", pattern, content)
		}
	}

	if strings.Contains(buf.String(), "Info message") {
		t.Error("quiet console should not show info lines")
	}
}

func TestLogPathFormat(t *testing.T) {
	setupTestDir(t)

	logger := NewLogger("test", LevelNormal, &bytes.Buffer{})
	if err := logger.EnableFile(); err != nil {
		t.Fatalf("Failed to enable file logging: %v", err)
	}
	defer logger.Close()

	fileName := filepath.Base(logger.LogPath())
	if !strings.HasSuffix(fileName, "-tabwatch.log") {
		t.Errorf("Expected log file to end with '-tabwatch.log', got %q", fileName)
	}

	if got := strings.TrimSuffix(fileName, "-tabwatch.log"); got != logger.RunID() {
		t.Errorf("Expected log file to be named after run ID %q, got %q", logger.RunID(), got)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("Failed to get home directory: %v", err)
	}
	dir := filepath.Join(home, ".tabwatch", "logs")
	if filepath.Dir(logger.LogPath()) != dir {
		t.Errorf("Expected log in %s, got %s", dir, logger.LogPath())
	}
}

func TestRunIDSharedAcrossLoggers(t *testing.T) {
	setupTestDir(t)

	id1 := NewLogger("a", LevelNormal, &bytes.Buffer{}).RunID()
	id2 := NewLogger("b", LevelNormal, &bytes.Buffer{}).RunID()

	if id1 != id2 {
		t.Errorf("Expected consistent run ID, got %q and %q", id1, id2)
	}

	if id1 == "" {
		t.Error("Expected non-empty run ID")
	}
}

func TestLoggerClose(t *testing.T) {
	setupTestDir(t)

	logger := NewLogger("test", LevelNormal, &bytes.Buffer{})
	if err := logger.EnableFile(); err != nil {
		t.Fatalf("Failed to enable file logging: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}

	// Close again should be safe
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}

	// Logging after close falls back to console only.
	logger.Infof("after close")
}

func TestLoggerCloseWithoutFile(t *testing.T) {
	logger := NewLogger("test", LevelNormal, &bytes.Buffer{})
	if err := logger.Close(); err != nil {
		t.Errorf("Close without file failed: %v", err)
	}
	if logger.LogPath() != "" {
		t.Errorf("Expected empty log path, got %q", logger.LogPath())
	}
}
