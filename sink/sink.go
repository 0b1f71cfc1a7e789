// Package sink defines the destinations records are written to and the line
// format they share. The file and console sinks render the same text; only the
// console wraps it in color.
package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/morfien101/logorganizer/record"
)

const (
	// TimestampLayout is the bracketed timestamp in every line.
	TimestampLayout = "2006-01-02 15:04:05,000"
	nameWidth       = 12
	severityWidth   = 8
	fieldSeparator  = " | "
)

// Sink is somewhere records can be written.
type Sink interface {
	Write(record.LogRecord) error
	Close() error
}

// Format renders a record without color and without a trailing newline.
// Exception text, if any, follows the message on its own lines.
func Format(rec record.LogRecord) string {
	line := fmt.Sprintf("%-*s%s[%s] %*s%s%s",
		nameWidth, rec.LoggerName,
		fieldSeparator,
		rec.Timestamp.Format(TimestampLayout),
		severityWidth, rec.Severity,
		fieldSeparator,
		rec.Message,
	)
	if rec.RawExceptionText != "" {
		line = line + "\n" + strings.TrimRight(rec.RawExceptionText, "\n")
	}
	return line
}

// ParseLine reads the first line of a formatted record back into a record.
// The timestamp is read in loc; nil means time.Local. Exception text is not
// recovered.
func ParseLine(line string, loc *time.Location) (record.LogRecord, error) {
	if loc == nil {
		loc = time.Local
	}
	line = strings.TrimSuffix(strings.SplitN(line, "\n", 2)[0], "\r")
	// Strip a UTF-8 byte order mark left at the start of a file.
	line = strings.TrimPrefix(line, "\ufeff")

	parts := strings.SplitN(line, fieldSeparator, 3)
	if len(parts) != 3 {
		return record.LogRecord{}, fmt.Errorf("line does not have 3 fields: %q", line)
	}

	middle := parts[1]
	end := strings.Index(middle, "]")
	if !strings.HasPrefix(middle, "[") || end < 0 {
		return record.LogRecord{}, fmt.Errorf("timestamp is not bracketed: %q", middle)
	}
	ts, err := time.ParseInLocation(TimestampLayout, middle[1:end], loc)
	if err != nil {
		return record.LogRecord{}, fmt.Errorf("bad timestamp: %w", err)
	}
	severity, err := record.ParseSeverity(middle[end+1:])
	if err != nil {
		return record.LogRecord{}, err
	}

	return record.LogRecord{
		LoggerName: strings.TrimRight(parts[0], " "),
		Severity:   severity,
		Timestamp:  ts,
		Message:    parts[2],
	}, nil
}
