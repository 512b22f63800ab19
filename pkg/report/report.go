// Package report writes end-of-run artifacts for a tab watch.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	StatusClosed      = "closed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// Summary describes one watch from launch to exit.
type Summary struct {
	RunID        string        `json:"run_id"`
	URL          string        `json:"url"`
	SessionStore string        `json:"session_store"`
	Policy       string        `json:"policy"`
	Status       string        `json:"status"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	Polls        int           `json:"polls"`
	Changes      int           `json:"changes"`
	Unreadable   int           `json:"unreadable"`
	FinalPhase   string        `json:"final_phase"`
	Error        string        `json:"error,omitempty"`
}

// Writer handles writing run artifacts
type Writer struct {
	outputDir string
}

// NewWriter creates a new artifact writer
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: outputDir,
	}
}

// WriteAll writes every artifact format
func (w *Writer) WriteAll(summary *Summary) error {
	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteJSON(summary); err != nil {
		return fmt.Errorf("failed to write run JSON: %w", err)
	}

	if err := w.WriteMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}

// WriteJSON writes the full summary as run.json
func (w *Writer) WriteJSON(summary *Summary) error {
	path := filepath.Join(w.outputDir, "run.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run JSON: %w", writeErr)
	}

	return nil
}

// WriteMarkdown writes a human-readable summary.md
func (w *Writer) WriteMarkdown(summary *Summary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	md.WriteString("# Tab Watch Summary\n\n")
	md.WriteString(fmt.Sprintf("**URL:** %s\n\n", summary.URL))
	md.WriteString(fmt.Sprintf("**Session store:** `%s`\n\n", summary.SessionStore))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Tab closed**\n\n")
	}

	md.WriteString("## Polling\n\n")
	md.WriteString(fmt.Sprintf("- **Policy:** %s\n", summary.Policy))
	md.WriteString(fmt.Sprintf("- **Polls:** %d\n", summary.Polls))
	md.WriteString(fmt.Sprintf("- **Directory changes:** %d\n", summary.Changes))
	md.WriteString(fmt.Sprintf("- **Unreadable polls:** %d\n", summary.Unreadable))
	md.WriteString(fmt.Sprintf("- **Final phase:** %s\n", summary.FinalPhase))
	md.WriteString(fmt.Sprintf("\n---\n*Run ID: %s*\n", summary.RunID))

	if err := os.WriteFile(path, []byte(md.String()), 0600); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	return nil
}
