package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sambeau/qdp/config"
	"github.com/sambeau/qdp/pkg/qdp"
)

var logLevels = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// logger writes CLI messages in text or JSON form
type logger struct {
	output io.Writer
	format string // "json" or "text"
	level  int
	quiet  bool
	closer io.Closer
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// newLogger opens the configured output
func newLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) (*logger, error) {
	l := &logger{
		format: cfg.Format,
		level:  logLevels[cfg.Level],
		quiet:  cfg.Quiet,
	}
	if l.format == "" {
		l.format = "text"
	}

	switch cfg.Output {
	case "", "stderr":
		l.output = stderr
	case "stdout":
		l.output = stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		l.output = f
		l.closer = f
	}
	return l, nil
}

func (l *logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *logger) write(entry LogEntry) {
	if logLevels[entry.Level] < l.level {
		return
	}
	if l.format == "json" {
		entry.Timestamp = time.Now().Format(time.RFC3339)
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintf(l.output, "%s\n", data)
		return
	}

	prefix := ""
	if entry.File != "" {
		prefix = entry.File + ": "
	}
	if entry.Line > 0 {
		prefix += fmt.Sprintf("line %d: ", entry.Line)
	}
	fmt.Fprintf(l.output, "[%s] %s%s\n", levelTag(entry.Level), prefix, entry.Message)
}

func levelTag(level string) string {
	switch level {
	case "debug":
		return "DEBUG"
	case "warn":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}

// logInfo logs an info message
func (l *logger) logInfo(format string, args ...any) {
	l.write(LogEntry{Level: "info", Message: fmt.Sprintf(format, args...)})
}

// logError logs an error message
func (l *logger) logError(format string, args ...any) {
	l.write(LogEntry{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// logDiagnostics reports reader warnings unless quiet
func (l *logger) logDiagnostics(file string, diags []qdp.Diagnostic) {
	if l.quiet {
		return
	}
	for _, d := range diags {
		l.write(LogEntry{
			Level:   "warn",
			Message: d.Message,
			Code:    d.Code,
			File:    file,
			Line:    d.Line,
		})
	}
}
