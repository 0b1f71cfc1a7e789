package transport

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Flaque/filet"

	"github.com/morfien101/logorganizer/record"
)

type event struct {
	register   bool
	name       string
	colorIndex int
	rec        record.LogRecord
}

type fakeHandler struct {
	lock   sync.Mutex
	events []event
}

func (f *fakeHandler) Enqueue(_ context.Context, rec record.LogRecord) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events = append(f.events, event{rec: rec})
	return nil
}

func (f *fakeHandler) RegisterRemote(name string, colorIndex int) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events = append(f.events, event{register: true, name: name, colorIndex: colorIndex})
	return nil
}

type errorTrap struct {
	lock sync.Mutex
	errs []error
}

func (e *errorTrap) report(err error) {
	e.lock.Lock()
	e.errs = append(e.errs, err)
	e.lock.Unlock()
}

func (e *errorTrap) count() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.errs)
}

func TestRemoteProducer(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "organizer.sock")
	handler := &fakeHandler{}
	trap := &errorTrap{}

	l, err := Listen(path, handler, trap.report)
	if err != nil {
		t.Fatal(err)
	}

	client, err := Dial(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Register("worker", -1); err != nil {
		t.Fatal(err)
	}
	logger := client.Logger("worker")
	for i := 0; i < 50; i++ {
		logger.Infof("message %d", i)
	}
	client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown did not drain in time. Error: %s", err)
	}

	if trap.count() != 0 {
		t.Fatalf("listener reported errors: %v", trap.errs)
	}
	if len(handler.events) != 51 {
		t.Fatalf("expected a registration and 50 records. Got: %d events", len(handler.events))
	}
	first := handler.events[0]
	if !first.register || first.name != "worker" || first.colorIndex != -1 {
		t.Logf("the registration should arrive first. Got: %+v", first)
		t.Fail()
	}
	for i, ev := range handler.events[1:] {
		want := fmt.Sprintf("message %d", i)
		if ev.rec.Message != want || ev.rec.LoggerName != "worker" || ev.rec.Severity != record.INFO {
			t.Fatalf("record %d out of order or damaged. Want: %s, Got: %+v", i, want, ev.rec)
		}
	}
	if filet.Exists(t, path) {
		t.Logf("the socket file should be removed on shutdown")
		t.Fail()
	}
}

func TestBadMessagesAreReported(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "organizer.sock")
	handler := &fakeHandler{}
	trap := &errorTrap{}

	l, err := Listen(path, handler, trap.report)
	if err != nil {
		t.Fatal(err)
	}

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	conn.Write([]byte("not json\n"))
	conn.Write([]byte(`{"type":"mystery"}` + "\n"))
	conn.Write([]byte(`{"type":"record"}` + "\n"))
	conn.Write([]byte(`{"type":"record","record":{"logger_name":"ok","severity":"warn","message":"fine"}}` + "\n"))
	conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	l.Shutdown(ctx)

	if trap.count() != 3 {
		t.Logf("expected 3 reported errors. Got: %v", trap.errs)
		t.Fail()
	}
	if len(handler.events) != 1 || handler.events[0].rec.Severity != record.WARN {
		t.Logf("the valid record should still be delivered. Got: %+v", handler.events)
		t.Fail()
	}
}

func TestDialWithoutListener(t *testing.T) {
	defer filet.CleanUp(t)
	if _, err := Dial(filepath.Join(filet.TmpDir(t, ""), "missing.sock")); err == nil {
		t.Logf("dialing a missing socket should fail")
		t.Fail()
	}
}

func TestShutdownRightAfterProducersClose(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "organizer.sock")
	handler := &fakeHandler{}

	l, err := Listen(path, handler, nil)
	if err != nil {
		t.Fatal(err)
	}

	producers := 5
	for p := 0; p < producers; p++ {
		client, err := Dial(path)
		if err != nil {
			t.Fatal(err)
		}
		logger := client.Logger(fmt.Sprintf("producer_%d", p))
		for i := 0; i < 10; i++ {
			logger.Infof("message %d", i)
		}
		client.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown did not drain in time. Error: %s", err)
	}

	handler.lock.Lock()
	defer handler.lock.Unlock()
	if len(handler.events) != producers*10 {
		t.Fatalf("connections waiting to be accepted should still be read. Got %d of %d records", len(handler.events), producers*10)
	}
}

func TestShutdownWithIdleProducer(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "organizer.sock")
	handler := &fakeHandler{}

	l, err := Listen(path, handler, nil)
	if err != nil {
		t.Fatal(err)
	}

	client, err := Dial(path)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	client.Logger("idle").Info("only one")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := l.Shutdown(ctx); err != nil {
		t.Fatalf("an idle producer should not hold shutdown. Error: %s", err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Logf("shutdown waited %s for an idle producer", took)
		t.Fail()
	}

	handler.lock.Lock()
	defer handler.lock.Unlock()
	if len(handler.events) != 1 {
		t.Logf("the record sent before shutdown should be delivered. Got: %+v", handler.events)
		t.Fail()
	}
}
