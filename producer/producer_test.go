package producer

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/silverstagtech/gotracer"

	"github.com/morfien101/logorganizer/record"
)

type trace struct {
	logger  *gotracer.Tracer
	records []record.LogRecord
}

func newTrace() *trace {
	return &trace{logger: gotracer.New()}
}

func (tr *trace) Produce(rec record.LogRecord) {
	tr.records = append(tr.records, rec)
	tr.logger.Send(fmt.Sprintf("%s|%s|%s", rec.LoggerName, rec.Severity, rec.Message))
}

func TestLoggerLevels(t *testing.T) {
	tr := newTrace()
	l := New("main", tr)

	l.Debug("d")
	l.Info("i")
	l.Warnf("w%d", 1)
	l.Error("e")
	l.Criticalf("c%s", "!")

	want := []string{
		"main|DEBUG|d",
		"main|INFO|i",
		"main|WARNING|w1",
		"main|ERROR|e",
		"main|CRITICAL|c!",
	}
	got := tr.logger.Show()
	if tr.logger.Len() != len(want) {
		t.Fatalf("expected %d records. Got: %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Logf("record %d. Want: %s, Got: %s", i, want[i], got[i])
			t.Fail()
		}
	}
	if tr.records[0].Timestamp.IsZero() {
		t.Logf("records must be stamped by the producer")
		t.Fail()
	}
}

func TestExceptionCarriesTrace(t *testing.T) {
	tr := newTrace()
	New("main", tr).Exception("failed to do the thing", errors.New("disk on fire"))

	if len(tr.records) != 1 {
		t.Fatalf("expected one record. Got: %d", len(tr.records))
	}
	rec := tr.records[0]
	if rec.Severity != record.ERROR {
		t.Logf("exceptions should be logged at ERROR. Got: %s", rec.Severity)
		t.Fail()
	}
	if !strings.HasPrefix(rec.RawExceptionText, "disk on fire\n") || !strings.Contains(rec.RawExceptionText, "goroutine") {
		t.Logf("exception text should hold the error and a stack. Got: %q", rec.RawExceptionText)
		t.Fail()
	}
}

func TestProducerPanicIsContained(t *testing.T) {
	l := New("main", ProducerFunc(func(record.LogRecord) {
		panic("queue exploded")
	}))
	// Must not panic.
	l.Info("hello")

	var nilLogger *Logger
	nilLogger.Info("also fine")
}

func TestLineWriter(t *testing.T) {
	tr := newTrace()
	w := New("stdlib", tr).Writer(record.WARN)
	std := log.New(w, "", 0)
	std.Println("first")
	std.Printf("second\nthird")

	w.Write([]byte("partial"))
	if tr.logger.Len() != 3 {
		t.Fatalf("expected 3 complete lines. Got: %v", tr.logger.Show())
	}
	w.Flush()

	want := []string{"first", "second", "third", "partial"}
	for i, rec := range tr.records {
		if rec.Message != want[i] || rec.Severity != record.WARN {
			t.Logf("line %d. Want: %s at WARNING, Got: %s at %s", i, want[i], rec.Message, rec.Severity)
			t.Fail()
		}
	}
}
