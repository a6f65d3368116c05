package api

import "github.com/charmbracelet/log"

// Level is the severity of a diagnostic notice
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Diagnostics receives the human-readable notices a client emits
type Diagnostics interface {
	Report(level Level, msg string)
}

// DiagnosticsFunc adapts a plain function to Diagnostics
type DiagnosticsFunc func(level Level, msg string)

// Report implements Diagnostics
func (f DiagnosticsFunc) Report(level Level, msg string) {
	f(level, msg)
}

type logDiagnostics struct {
	logger *log.Logger
}

// NewLogDiagnostics sends notices to a charmbracelet logger.
// A nil logger discards them.
func NewLogDiagnostics(logger *log.Logger) Diagnostics {
	return logDiagnostics{logger: logger}
}

func (d logDiagnostics) Report(level Level, msg string) {
	if d.logger == nil {
		return
	}
	if level == LevelError {
		d.logger.Error(msg)
		return
	}
	d.logger.Info(msg)
}
