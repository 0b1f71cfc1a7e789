package aggregator

import (
	"errors"
	"runtime/debug"

	"github.com/morfien101/logorganizer/record"
)

// consume is the only reader of the queue. It stops at the sentinel and never
// because the queue is empty.
func (a *Aggregator) consume(started chan struct{}) {
	defer close(a.done)
	close(started)
	for {
		rec, ok := a.queue.Get()
		if !ok {
			return
		}
		a.dispatch(rec)
	}
}

// dispatch writes one record to every sink it belongs to. A failure is
// reported and the loop carries on with the next record.
func (a *Aggregator) dispatch(rec record.LogRecord) {
	defer func() {
		if r := recover(); r != nil {
			a.internal.ReportFailure(r, debug.Stack())
		}
	}()

	errs := make([]error, 0)
	addErr := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	addErr(a.representative.Write(rec))
	if reg := a.lookup(rec.LoggerName); reg != nil && reg.stream {
		addErr(a.console.Write(rec))
		if reg.fileSink != nil && reg.fileSink != a.representative {
			addErr(reg.fileSink.Write(rec))
		}
	}
	for _, m := range a.mirrors {
		addErr(m.Write(rec))
	}

	if len(errs) > 0 {
		a.internal.ReportFailure(errors.Join(errs...), debug.Stack())
	}
}
