// Package internallogger is used by the aggregator to report its own faults.
// Reports are written straight to a sink, normally the representative log
// file, and never go through the queue the consumer is draining. If that sink
// fails the report is printed on stderr instead.
package internallogger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink"
)

const (
	// organizerSource is the logger name on every record this package writes.
	organizerSource = "log_organizer"
	// listenerProblem is logged when the consumer fails to dispatch a record.
	listenerProblem = "logger organizer listener problem"
)

// IntErrLogger is a logger that will log at Error level
type IntErrLogger interface {
	Errorf(format string, args ...interface{})
	Errorln(s interface{})
}

// IntStdLogger is a logger that will minic fmt.Printf or fmt.Println
type IntStdLogger interface {
	Printf(format string, args ...interface{})
	Println(s interface{})
}

// IntDebugLogger is a logger that will log at debug level but only
// if the debug toggle is turned on.
type IntDebugLogger interface {
	Debugf(format string, args ...interface{})
	DebugOn(on bool)
}

// IntLogger is a fully implemented internal logger.
type IntLogger interface {
	IntDebugLogger
	IntStdLogger
	IntErrLogger
	Report(err error)
	ReportFailure(reason interface{}, stack []byte)
}

// InternalLogger writes reports for the aggregator.
type InternalLogger struct {
	lock     sync.Mutex
	debug    bool
	out      sink.Sink
	fallback io.Writer
	// writing serializes reports to a DeferredSink.
	writing sync.Mutex
}

// DeferredSink is a sink that hands back the failures a write raised instead
// of reporting them itself. Reports written to it are serialized, and a
// failure raised while writing a report of a failure goes to stderr.
type DeferredSink interface {
	sink.Sink
	WriteDeferred(rec record.LogRecord) ([]error, error)
}

// maxReportDepth is how deep failures raised by writing reports are followed.
const maxReportDepth = 1

// New returns an InternalLogger writing to out. A nil out sends everything to
// stderr. An out that is not a DeferredSink must not report back into the
// logger.
func New(out sink.Sink) *InternalLogger {
	return &InternalLogger{
		out:      out,
		fallback: os.Stderr,
	}
}

// SetSink swaps the sink reports go to.
func (il *InternalLogger) SetSink(out sink.Sink) {
	il.lock.Lock()
	il.out = out
	il.lock.Unlock()
}

// Printf mimics fmt.Printf at INFO.
func (il *InternalLogger) Printf(format string, args ...interface{}) {
	il.submit(record.INFO, fmt.Sprintf(format, args...), "")
}

// Println mimics fmt.Println at INFO.
func (il *InternalLogger) Println(s interface{}) {
	il.submit(record.INFO, strings.TrimSuffix(fmt.Sprintln(s), "\n"), "")
}

// Errorf mimics fmt.Printf at ERROR.
func (il *InternalLogger) Errorf(format string, args ...interface{}) {
	il.submit(record.ERROR, fmt.Sprintf(format, args...), "")
}

// Errorln mimics fmt.Println at ERROR.
func (il *InternalLogger) Errorln(s interface{}) {
	il.submit(record.ERROR, strings.TrimSuffix(fmt.Sprintln(s), "\n"), "")
}

// Debugf mimics fmt.Printf at DEBUG if the debug toggle is on.
func (il *InternalLogger) Debugf(format string, args ...interface{}) {
	il.lock.Lock()
	on := il.debug
	il.lock.Unlock()
	if on {
		il.submit(record.DEBUG, fmt.Sprintf(format, args...), "")
	}
}

// DebugOn is used to turn debug logging on and off.
func (il *InternalLogger) DebugOn(on bool) {
	il.lock.Lock()
	il.debug = on
	il.lock.Unlock()
}

// Report logs err at ERROR.
func (il *InternalLogger) Report(err error) {
	if err == nil {
		return
	}
	il.submit(record.ERROR, err.Error(), "")
}

// ReportFailure logs a failed dispatch: an ERROR line naming the problem, then
// an INFO line carrying the reason and the stack.
func (il *InternalLogger) ReportFailure(reason interface{}, stack []byte) {
	il.submit(record.ERROR, listenerProblem, "")
	il.submit(record.INFO, fmt.Sprintf("%v", reason), strings.TrimRight(string(stack), "\n"))
}

func (il *InternalLogger) submit(sev record.Severity, msg, exception string) {
	rec := record.New(organizerSource, sev, msg).WithException(exception)

	il.lock.Lock()
	out := il.out
	il.lock.Unlock()

	if ds, ok := out.(DeferredSink); ok {
		il.writing.Lock()
		defer il.writing.Unlock()
		il.writeDeferred(ds, rec, 0)
		return
	}
	if out == nil || out.Write(rec) != nil {
		il.toFallback(rec)
	}
}

func (il *InternalLogger) writeDeferred(ds DeferredSink, rec record.LogRecord, depth int) {
	reports, err := ds.WriteDeferred(rec)
	if err != nil {
		il.toFallback(rec)
	}
	for _, report := range reports {
		nested := record.New(organizerSource, record.ERROR, report.Error())
		if depth >= maxReportDepth {
			il.toFallback(nested)
			continue
		}
		il.writeDeferred(ds, nested, depth+1)
	}
}

func (il *InternalLogger) toFallback(rec record.LogRecord) {
	fmt.Fprintln(il.fallback, sink.Format(rec))
}
