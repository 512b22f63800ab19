package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Level represents the logging verbosity level
type Level int

const (
	// LevelQuiet shows only warnings and errors
	LevelQuiet Level = iota
	// LevelNormal shows phase changes and the final result (default)
	LevelNormal
	// LevelVerbose shows every poll
	LevelVerbose
	// LevelDebug shows every tab visited during a poll
	LevelDebug
)

// ParseLevel converts a verbosity name to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "quiet":
		return LevelQuiet, nil
	case "", "normal":
		return LevelNormal, nil
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelNormal, fmt.Errorf("invalid verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", s)
	}
}

// Logger writes diagnostic lines to the console and, optionally, mirrors
// them to a run log file in ~/.tabwatch/logs/.
//
// Every line is written with a single call on the underlying writer, so an
// external supervisor reading the process output sees it immediately.
type Logger struct {
	level     Level
	component string
	writer    io.Writer
	styles    styles

	file      *os.File
	fileLog   *log.Logger
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

type styles struct {
	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	phase   lipgloss.Style
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error
)

// getRunID returns or creates the run ID for this execution
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".tabwatch", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a console logger for a component. Styling follows the
// capabilities of w: plain text when w is not a terminal.
func NewLogger(component string, level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}

	r := lipgloss.NewRenderer(w)
	return &Logger{
		level:     level,
		component: component,
		writer:    w,
		styles: styles{
			info:    r.NewStyle().Foreground(lipgloss.Color("217")),
			success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
			warning: r.NewStyle().Foreground(lipgloss.Color("3")),
			err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
			muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
			phase:   r.NewStyle().Foreground(lipgloss.Color("6")),
		},
	}
}

// EnableFile mirrors every line, unstyled and timestamped, to
// ~/.tabwatch/logs/<run-id>-tabwatch.log. On error the logger keeps
// writing to the console only.
func (l *Logger) EnableFile() error {
	if err := initLogDirectory(); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s-tabwatch.log", getRunID()))

	// Open log file in append mode (multiple components may write to same file)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.file = file
	l.fileLog = log.New(file, "", 0)
	l.logPath = logPath
	return nil
}

func (l *Logger) emit(min Level, tag string, style lipgloss.Style, prefix, format string, args []interface{}) {
	message := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileLog != nil {
		timestamp := time.Now().Format("2006-01-02 15:04:05.000")
		l.fileLog.Printf("[%s] [%s] [%s] %s", timestamp, l.component, tag, message)
	}

	if l.level >= min {
		fmt.Fprintln(l.writer, style.Render(prefix+message))
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.emit(LevelNormal, "INFO", l.styles.info, "", format, args)
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	l.emit(LevelNormal, "INFO", l.styles.success, "✓ ", format, args)
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.emit(LevelQuiet, "WARN", l.styles.warning, "⚠ Warning: ", format, args)
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.emit(LevelQuiet, "ERROR", l.styles.err, "✗ Error: ", format, args)
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	l.emit(LevelVerbose, "VERBOSE", l.styles.muted, "→ ", format, args)
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.emit(LevelDebug, "DEBUG", l.styles.muted, "[DEBUG] ", format, args)
}

// Phase logs a scheduler phase change.
func (l *Logger) Phase(from, to string) {
	l.emit(LevelNormal, "INFO", l.styles.phase, "▶ ", "%s → %s", []interface{}{from, to})
}

// RunID returns the current run ID
func (l *Logger) RunID() string {
	return getRunID()
}

// LogPath returns the path to the log file, or "" when file logging is off.
func (l *Logger) LogPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.file != nil {
			err = l.file.Close()
			l.fileLog = nil
		}
	})
	return err
}
