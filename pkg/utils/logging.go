package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogLevel represents the logging level
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string log level
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", level)
	}
}

// ParseLogFormat parses "text" or "json".
func ParseLogFormat(format string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("invalid log format: %s", format)
	}
}

// SetupLogging builds the process logger. An empty logFile writes to stderr;
// otherwise the file is rotated with the default rotation settings.
func SetupLogging(levelStr, logFile, formatStr string) (*StructuredLogger, error) {
	level, err := ParseLogLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	format, err := ParseLogFormat(formatStr)
	if err != nil {
		return nil, err
	}

	config := &StructuredLoggerConfig{
		Level:         level,
		Output:        os.Stderr,
		Format:        format,
		IncludeCaller: level <= DEBUG,
		IncludeStack:  level <= DEBUG,
	}
	if logFile != "" {
		if err := ValidatePath(logFile, true); err != nil {
			return nil, fmt.Errorf("invalid log file: %w", err)
		}
		rotation := DefaultRotationConfig()
		rotation.Filename = logFile
		config.Rotation = rotation
	}

	return NewStructuredLogger(config)
}

// NewDiscardLogger returns a logger that drops everything. It is the
// fallback for components constructed without a logger.
func NewDiscardLogger() *StructuredLogger {
	logger, _ := NewStructuredLogger(&StructuredLoggerConfig{
		Level:  FATAL + 1,
		Output: io.Discard,
		Format: FormatText,
	})
	return logger
}
