// Package syslog mirrors records into the syslog daemon of the local machine.
// Only the local daemon is supported; records are not shipped to other hosts.
package syslog

import (
	"fmt"
	"os"

	syslogger "github.com/silverstagtech/srslog"

	"github.com/morfien101/logorganizer/record"
)

const defaultTag = "log_organizer"

// Options tune the syslog mirror.
type Options struct {
	// Tag is the program name in each message.
	Tag string
	// MinSeverity is the lowest severity mirrored.
	MinSeverity record.Severity
}

// writer is the part of the srslog writer we use.
type writer interface {
	WriteWithOverrides(facility, priority syslogger.Priority, hostname, tag, text string) (int, error)
	Close() error
}

// Syslog is a sink that forwards records to the local syslog daemon.
type Syslog struct {
	opts      Options
	hostname  string
	facility  syslogger.Priority
	logwriter writer
}

// New connects to the local syslog daemon.
func New(opts Options) (*Syslog, error) {
	if opts.Tag == "" {
		opts.Tag = defaultTag
	}
	w, err := syslogger.Dial("", "", syslogger.LOG_INFO|syslogger.LOG_USER, opts.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the local syslog daemon. Error: %w", err)
	}
	return newWithWriter(opts, w), nil
}

func newWithWriter(opts Options, w writer) *Syslog {
	if opts.Tag == "" {
		opts.Tag = defaultTag
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "not_available"
	}
	return &Syslog{
		opts:      opts,
		hostname:  hostname,
		facility:  syslogger.LOG_USER,
		logwriter: w,
	}
}

// Priority maps a severity onto a syslog priority.
func Priority(sev record.Severity) syslogger.Priority {
	switch sev {
	case record.DEBUG:
		return syslogger.LOG_DEBUG
	case record.INFO:
		return syslogger.LOG_INFO
	case record.WARN:
		return syslogger.LOG_WARNING
	case record.ERROR:
		return syslogger.LOG_ERR
	case record.CRITICAL:
		return syslogger.LOG_CRIT
	default:
		return syslogger.LOG_INFO
	}
}

// Write sends rec if it is at or above the minimum severity.
func (sl *Syslog) Write(rec record.LogRecord) error {
	if !rec.AtLeast(sl.opts.MinSeverity) {
		return nil
	}
	text := rec.LoggerName + ": " + rec.Message
	if rec.RawExceptionText != "" {
		text = text + "\n" + rec.RawExceptionText
	}
	_, err := sl.logwriter.WriteWithOverrides(sl.facility, Priority(rec.Severity), sl.hostname, sl.opts.Tag, text)
	return err
}

// Close closes the connection to the daemon.
func (sl *Syslog) Close() error {
	if sl.logwriter == nil {
		return nil
	}
	return sl.logwriter.Close()
}
