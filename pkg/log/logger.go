// Structured logging for the robotpath toolchain
//
// Provides leveled logging with per-component prefixes and structured
// key-value fields. Output defaults to stderr in a human-readable text
// format; behavior is configurable through environment variables so the
// CLI and tests can tune verbosity without plumbing flags everywhere.

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// DEBUG level for detailed solver tracing.
	DEBUG Level = iota

	// INFO level for general progress messages.
	INFO

	// WARN level for recoverable findings (e.g. clamped speeds).
	WARN

	// ERROR level for fatal findings and load failures.
	ERROR
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Fields is a map of structured logging fields.
type Fields map[string]interface{}

// Logger writes leveled, prefixed log lines.
type Logger struct {
	mu         sync.Mutex
	prefix     string
	writer     io.Writer
	level      Level
	timeFormat string
	colorize   bool
}

var ansiColors = map[Level]string{
	DEBUG: "\x1b[36m", // cyan
	INFO:  "\x1b[32m", // green
	WARN:  "\x1b[33m", // yellow
	ERROR: "\x1b[31m", // red
}

const ansiReset = "\x1b[0m"

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// New creates a new logger with the given component prefix.
func New(prefix string) *Logger {
	return &Logger{
		prefix:     prefix,
		writer:     os.Stderr,
		level:      INFO,
		timeFormat: "2006-01-02 15:04:05.000",
		colorize:   os.Getenv("NO_COLOR") == "",
	}
}

// SetLevel sets the minimum level that will be written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetWriter sets the output writer (e.g. for testing).
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetColorize enables or disables ANSI colors.
func (l *Logger) SetColorize(enable bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = enable
}

// WithPrefix returns a new logger sharing this logger's settings with a
// different component prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		prefix:     prefix,
		writer:     l.writer,
		level:      l.level,
		timeFormat: l.timeFormat,
		colorize:   l.colorize,
	}
}

func (l *Logger) log(level Level, fields Fields, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format(l.timeFormat))
	sb.WriteString(" [")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString("] ")
	if l.colorize {
		sb.WriteString(ansiColors[level])
	}
	sb.WriteString(l.prefix)
	if l.colorize {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		sb.WriteString(" {")
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, fields[k])
		}
		sb.WriteString("}")
	}
	sb.WriteString("\n")
	fmt.Fprint(l.writer, sb.String())
}

// Debug logs a message at DEBUG level.
func (l *Logger) Debug(msg string, args ...interface{}) { l.log(DEBUG, nil, msg, args...) }

// Info logs a message at INFO level.
func (l *Logger) Info(msg string, args ...interface{}) { l.log(INFO, nil, msg, args...) }

// Warn logs a message at WARN level.
func (l *Logger) Warn(msg string, args ...interface{}) { l.log(WARN, nil, msg, args...) }

// Error logs a message at ERROR level.
func (l *Logger) Error(msg string, args ...interface{}) { l.log(ERROR, nil, msg, args...) }

// WithFields logs a message with structured fields at the given level.
func (l *Logger) WithFields(level Level, fields Fields, msg string) {
	l.log(level, fields, msg)
}

// SetDefaultLogger replaces the process-wide default logger.
func SetDefaultLogger(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// GetLogger returns a logger derived from the default one with the given
// component prefix.
func GetLogger(prefix string) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New("robotpath")
	}
	if prefix == "" {
		return defaultLogger
	}
	return defaultLogger.WithPrefix(prefix)
}

// ConfigureFromEnv applies environment-based configuration.
// Environment variables:
//   - ROBOTPATH_LOG_LEVEL: DEBUG, INFO, WARN, ERROR
//   - NO_COLOR: any non-empty value disables colors
func ConfigureFromEnv(l *Logger) {
	if levelStr := os.Getenv("ROBOTPATH_LOG_LEVEL"); levelStr != "" {
		l.SetLevel(ParseLevel(levelStr))
	}
	if os.Getenv("NO_COLOR") != "" {
		l.SetColorize(false)
	}
}
