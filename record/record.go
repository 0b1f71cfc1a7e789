// Package record holds the value that travels from a producer, through the
// queue, to the sinks. A LogRecord is never modified once it has been created.
package record

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the importance of a record. The ordering of the constants is
// the ordering used for filtering.
type Severity int

const (
	// DEBUG is the lowest severity. Producers always emit at DEBUG so the sinks
	// do all of the filtering.
	DEBUG Severity = iota
	INFO
	WARN
	ERROR
	CRITICAL
)

var severityLabels = map[Severity]string{
	DEBUG:    "DEBUG",
	INFO:     "INFO",
	WARN:     "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

// String returns the label that is written into the log line.
func (s Severity) String() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("LEVEL(%d)", int(s))
}

// Valid reports if s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := severityLabels[s]
	return ok
}

// MarshalText lets a Severity appear as its label in config and wire formats.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText accepts anything ParseSeverity accepts.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a label into a Severity. It is not case sensitive
// and accepts the common aliases.
func ParseSeverity(label string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "trace", "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "err", "error":
		return ERROR, nil
	case "crit", "critical", "fatal":
		return CRITICAL, nil
	default:
		return DEBUG, fmt.Errorf("%q is not a recognized severity", label)
	}
}

// LogRecord is a single log event.
type LogRecord struct {
	LoggerName string    `json:"logger_name"`
	Severity   Severity  `json:"severity"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	// RawExceptionText is optional. When present it is rendered on the lines
	// after the message.
	RawExceptionText string `json:"raw_exception_text,omitempty"`
}

// New creates a record stamped with the current time.
func New(name string, severity Severity, message string) LogRecord {
	return LogRecord{
		LoggerName: name,
		Severity:   severity,
		Timestamp:  time.Now(),
		Message:    message,
	}
}

// WithException returns a copy of the record carrying exception text.
func (r LogRecord) WithException(text string) LogRecord {
	r.RawExceptionText = text
	return r
}

// AtLeast reports if the record should pass a filter set at min.
func (r LogRecord) AtLeast(min Severity) bool {
	return r.Severity >= min
}
