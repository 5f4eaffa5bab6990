// Package logging configures the process-wide slog logger. Output never goes to
// stdout, which carries the MCP protocol stream.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Options controls where and how log records are written.
type Options struct {
	// Path is an optional log file; records are appended to it in addition to Stderr.
	Path string
	// Debug lowers the level to slog.LevelDebug.
	Debug bool
	// Format is "text" (default) or "json".
	Format string
	// Stderr overrides os.Stderr, mostly for tests.
	Stderr io.Writer
}

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Init replaces the package logger. Calling it again closes any previously opened file.
func Init(opts Options) error {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "text" && format != "json" {
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if opts.Stderr != nil {
		writers = append(writers, opts.Stderr)
	} else {
		writers = append(writers, os.Stderr)
	}

	if opts.Path != "" {
		if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	out := io.MultiWriter(writers...)

	var handler slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	logger = slog.New(handler).With(slog.String("component", "weather-mcp"))
	slog.SetDefault(logger)
	return nil
}

// Close flushes and closes the log file, reverting to a stderr logger.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// LogEvent writes a formatted info record.
func LogEvent(format string, args ...any) {
	Logger().Info(fmt.Sprintf(format, args...))
}

// LogRequest writes a debug record describing one leg of a tool call.
func LogRequest(direction, tool, callID string, payload any) {
	Logger().Debug(buildRequestMessage(direction, tool, callID, payload))
}

func buildRequestMessage(direction, tool, callID string, payload any) string {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	tool = strings.TrimSpace(tool)
	if tool == "" {
		tool = "unknown"
	}
	parts := []string{fmt.Sprintf("[%s]", dir), fmt.Sprintf("tool=%s", tool)}
	if callID = strings.TrimSpace(callID); callID != "" {
		parts = append(parts, fmt.Sprintf("call_id=%s", callID))
	}
	parts = append(parts, fmt.Sprintf("payload=%s", formatPayload(payload)))
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
