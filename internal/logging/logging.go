// Package logging provides structured, leveled logging.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger writes leveled log lines. Stdout belongs to the report line, so the
// default output is stderr.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	traceID   string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stderr,
		minLevel: LevelWarn,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := New()
	l.output = io.Discard
	return l
}

// ParseLevel converts a config value into a Level.
func ParseLevel(s string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(s)))
	if level == "WARNING" {
		level = LevelWarn
	}
	if _, ok := levelPriority[level]; !ok {
		return LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		traceID:   l.traceID,
	}
}

// WithTraceID returns a new logger with the given trace ID.
func (l *Logger) WithTraceID(traceID string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		traceID:   traceID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs sorted by key.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		merged := fields[0]
		if l.traceID != "" {
			merged = make(map[string]interface{}, len(fields[0])+1)
			for k, v := range fields[0] {
				merged[k] = v
			}
			merged["trace_id"] = l.traceID
		}
		fieldStr = formatFields(merged)
	} else if l.traceID != "" {
		fieldStr = formatFields(map[string]interface{}{"trace_id": l.traceID})
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// ExecutionStart logs the start of a plugin tree execution.
func (l *Logger) ExecutionStart(root string) {
	l.Info("execution_start", map[string]interface{}{
		"plugin": root,
	})
}

// ExecutionComplete logs the completion of a plugin tree execution.
func (l *Logger) ExecutionComplete(root string, duration time.Duration, status string) {
	l.Info("execution_complete", map[string]interface{}{
		"plugin":   root,
		"duration": duration.String(),
		"status":   status,
	})
}

// NodeStart logs the start of a single plugin.
func (l *Logger) NodeStart(path string, meta bool) {
	l.Debug("plugin_start", map[string]interface{}{
		"plugin": path,
		"meta":   meta,
	})
}

// NodeComplete logs a plugin's result.
func (l *Logger) NodeComplete(path string, duration time.Duration, status, output string) {
	l.Debug("plugin_complete", map[string]interface{}{
		"plugin":   path,
		"duration": duration.String(),
		"status":   status,
		"output":   output,
	})
}

// NodeError logs an error contained at a plugin boundary.
func (l *Logger) NodeError(path string, err error) {
	l.Warn("plugin_error", map[string]interface{}{
		"plugin": path,
		"error":  err.Error(),
	})
}

// NodeSkipped logs a disabled plugin that was not run.
func (l *Logger) NodeSkipped(path string) {
	l.Debug("plugin_skipped", map[string]interface{}{
		"plugin": path,
	})
}

// ArgsApplied logs the effective arguments of a plugin.
func (l *Logger) ArgsApplied(path string, args map[string]interface{}) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s:%v", k, args[k]))
	}
	l.Info("plugin_args", map[string]interface{}{
		"plugin": path,
		"args":   strings.Join(pairs, ","),
	})
}

// Published logs a result handed to a remote collector.
func (l *Logger) Published(target, subject string, err error) {
	fields := map[string]interface{}{
		"target":  target,
		"subject": subject,
	}
	if err != nil {
		fields["error"] = err.Error()
		l.Error("publish_failed", fields)
		return
	}
	l.Debug("published", fields)
}
