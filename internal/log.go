package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelTrace:
		return "TRACE"
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a LOG_LEVEL value to a level. Unknown values yield INFO
// and false.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError, true
	case "WARN", "WARNING":
		return LogLevelWarn, true
	case "INFO":
		return LogLevelInfo, true
	case "DEBUG":
		return LogLevelDebug, true
	case "TRACE":
		return LogLevelTrace, true
	}
	return LogLevelInfo, false
}

// Logger provides leveled logging
type Logger struct {
	level  LogLevel
	prefix string
	out    *log.Logger
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level, out: log.Default()}
}

// NewLoggerTo writes to w instead of the standard logger.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	return &Logger{level: level, out: log.New(w, "", log.LstdFlags)}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	level, _ := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	return NewLogger(level)
}

// With returns a logger sharing level and output that tags every line with
// a component name, e.g. "[Attribution]".
func (l *Logger) With(component string) *Logger {
	return &Logger{level: l.level, prefix: l.prefix + "[" + component + "] ", out: l.out}
}

func (l *Logger) emit(level LogLevel, format string, args []interface{}) {
	if l.level >= level {
		l.out.Printf("["+level.String()+"] "+l.prefix+format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LogLevelError, format, args)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LogLevelWarn, format, args)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LogLevelInfo, format, args)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LogLevelDebug, format, args)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.emit(LogLevelTrace, format, args)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
