// Package producer turns application log calls into records and hands them to
// a Producer, normally an aggregator or a connection to one in another process.
//
// A Logger does no line formatting. It stamps the record and enqueues it, so a
// call only blocks when the queue behind it is full.
package producer

import (
	"fmt"
	"runtime/debug"

	"github.com/morfien101/logorganizer/record"
)

// Producer accepts records. Produce may block to apply back-pressure but must
// not return errors to the application.
type Producer interface {
	Produce(record.LogRecord)
}

// ProducerFunc lets a plain function act as a Producer.
type ProducerFunc func(record.LogRecord)

// Produce calls f.
func (f ProducerFunc) Produce(rec record.LogRecord) {
	f(rec)
}

// Logger is the handle an application logs through.
type Logger struct {
	name string
	dest Producer
}

// New creates a Logger for name that sends to dest.
func New(name string, dest Producer) *Logger {
	return &Logger{
		name: name,
		dest: dest,
	}
}

// Name of the logger.
func (l *Logger) Name() string {
	return l.name
}

// Log emits msg at sev.
func (l *Logger) Log(sev record.Severity, msg string) {
	if l == nil {
		return
	}
	l.emit(record.New(l.name, sev, msg))
}

func (l *Logger) emit(rec record.LogRecord) {
	if l.dest == nil {
		return
	}
	// Aggregation faults stay out of application code.
	defer func() {
		recover()
	}()
	l.dest.Produce(rec)
}

func (l *Logger) Debug(msg string) { l.Log(record.DEBUG, msg) }

func (l *Logger) Info(msg string) { l.Log(record.INFO, msg) }

func (l *Logger) Warn(msg string) { l.Log(record.WARN, msg) }

func (l *Logger) Error(msg string) { l.Log(record.ERROR, msg) }

func (l *Logger) Critical(msg string) { l.Log(record.CRITICAL, msg) }

// Debugf mimics fmt.Printf at DEBUG.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Log(record.DEBUG, fmt.Sprintf(format, args...))
}

// Infof mimics fmt.Printf at INFO.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Log(record.INFO, fmt.Sprintf(format, args...))
}

// Warnf mimics fmt.Printf at WARN.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Log(record.WARN, fmt.Sprintf(format, args...))
}

// Errorf mimics fmt.Printf at ERROR.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Log(record.ERROR, fmt.Sprintf(format, args...))
}

// Criticalf mimics fmt.Printf at CRITICAL.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Log(record.CRITICAL, fmt.Sprintf(format, args...))
}

// Exception logs msg at ERROR with err and the current stack as exception text.
func (l *Logger) Exception(msg string, err error) {
	if l == nil {
		return
	}
	text := string(debug.Stack())
	if err != nil {
		text = err.Error() + "\n" + text
	}
	l.emit(record.New(l.name, record.ERROR, msg).WithException(text))
}
