package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/thesavant42/wayback-tweets/internal/api"
)

// consoleMu serializes terminal writes from concurrent fetches
var consoleMu sync.Mutex

// ConsoleDiagnostics prints client notices in color: progress in yellow,
// failures in red. Safe for concurrent use.
type ConsoleDiagnostics struct {
	out    io.Writer
	prefix string
}

// NewConsoleDiagnostics creates a sink writing to out. A non-empty prefix
// (usually the username) tags each line.
func NewConsoleDiagnostics(out io.Writer, prefix string) *ConsoleDiagnostics {
	return &ConsoleDiagnostics{out: out, prefix: prefix}
}

// Report implements api.Diagnostics
func (c *ConsoleDiagnostics) Report(level api.Level, msg string) {
	if c.prefix != "" {
		msg = fmt.Sprintf("[%s] %s", c.prefix, msg)
	}

	style := ProgressStyle
	if level == api.LevelError {
		style = ErrorStyle
	}

	consoleMu.Lock()
	defer consoleMu.Unlock()
	fmt.Fprintln(c.out, style.Render(msg))
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	fmt.Println(SuccessStyle.Render(message))
}

// PrintError prints an error message
func PrintError(message string) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	fmt.Println(ErrorStyle.Render("Error: " + message))
}

// PrintProgress prints an in-flight status line
func PrintProgress(message string) {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	fmt.Println(ProgressStyle.Render(message))
}

// PrintSummary prints a brief summary after a fetch
func PrintSummary(username string, records, inserted int, outputs []string) {
	consoleMu.Lock()
	defer consoleMu.Unlock()

	summary := fmt.Sprintf("@%s: %s archived tweets (%s new in cache)",
		username, humanize.Comma(int64(records)), humanize.Comma(int64(inserted)))
	fmt.Println(AccentStyle.Render(summary))
	for _, path := range outputs {
		fmt.Println(DimStyle.Render("  wrote " + path))
	}
}
