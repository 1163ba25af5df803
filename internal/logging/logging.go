// Package logging provides the leveled structured logger shared by the
// videohub server and CLI. Output is plain text for development and JSON
// lines when VH_LOG_FORMAT=json or VH_ENV=production.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger provides structured logging
type Logger struct {
	mu         sync.Mutex
	output     io.Writer
	minLevel   Level
	enableJSON bool
	now        func() time.Time
}

// Entry represents a structured log entry
type Entry struct {
	Level   Level          `json:"level"`
	Time    string         `json:"time"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
	Error   string         `json:"error,omitempty"`
	Caller  string         `json:"caller,omitempty"`
}

// Default is the process-wide logger. It writes to stderr so that CLI
// commands can keep stdout for their own output.
var Default = FromEnv(os.Stderr)

// New creates a logger writing to w.
func New(w io.Writer, minLevel Level, enableJSON bool) *Logger {
	if _, ok := levelRank[minLevel]; !ok {
		minLevel = LevelInfo
	}
	return &Logger{
		output:     w,
		minLevel:   minLevel,
		enableJSON: enableJSON,
		now:        time.Now,
	}
}

// FromEnv creates a logger configured from VH_LOG_FORMAT, VH_ENV and VH_LOG_LEVEL.
func FromEnv(w io.Writer) *Logger {
	enableJSON := os.Getenv("VH_LOG_FORMAT") == "json" || os.Getenv("VH_ENV") == "production"
	return New(w, ParseLevel(os.Getenv("VH_LOG_LEVEL")), enableJSON)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(io.Discard, LevelError, false)
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func (l *Logger) shouldLog(level Level) bool {
	return levelRank[level] >= levelRank[l.minLevel]
}

// getCaller returns the file and line number of the caller
func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func (l *Logger) log(level Level, msg string, fields map[string]any, err error) {
	if l == nil || !l.shouldLog(level) {
		return
	}

	entry := Entry{
		Level:   level,
		Time:    l.now().UTC().Format(time.RFC3339),
		Message: msg,
		Fields:  fields,
		Caller:  getCaller(3),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enableJSON {
		data, _ := json.Marshal(entry)
		fmt.Fprintln(l.output, string(data))
		return
	}

	// Plain text, fields sorted so lines are stable.
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s %s", entry.Level, entry.Time, entry.Message)
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Fields[k])
	}
	if entry.Error != "" {
		fmt.Fprintf(&sb, " error=%q", entry.Error)
	}
	fmt.Fprintln(l.output, sb.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(LevelDebug, msg, fields, nil)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(LevelInfo, msg, fields, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(LevelWarn, msg, fields, nil)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]any, err error) {
	l.log(LevelError, msg, fields, err)
}

// Global logging functions

func Debug(msg string, fields map[string]any) { Default.log(LevelDebug, msg, fields, nil) }

func Info(msg string, fields map[string]any) { Default.log(LevelInfo, msg, fields, nil) }

func Warn(msg string, fields map[string]any) { Default.log(LevelWarn, msg, fields, nil) }

func Error(msg string, fields map[string]any, err error) {
	Default.log(LevelError, msg, fields, err)
}
