package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/morfien101/logorganizer/record"
)

// drainGrace is how long Shutdown waits for the next connection or the next
// line of an open connection before giving up on it.
const drainGrace = 250 * time.Millisecond

// Handler receives what remote producers send.
type Handler interface {
	// Enqueue blocks until rec is queued or ctx is done.
	Enqueue(ctx context.Context, rec record.LogRecord) error
	// RegisterRemote asks for name to be shown on the console. A negative
	// colorIndex asks for the next automatic color.
	RegisterRemote(name string, colorIndex int) error
}

// Listener accepts producer connections on a unix socket.
type Listener struct {
	path    string
	ln      *net.UnixListener
	handler Handler
	report  func(error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lock  sync.Mutex
	conns map[string]net.Conn
	// draining is set once Shutdown has begun.
	draining atomic.Bool
}

// Listen creates the socket at path and starts accepting connections. A stale
// socket left at path by a previous run is removed. report receives connection
// and decoding errors; nil discards them.
func Listen(path string, h Handler, report func(error)) (*Listener, error) {
	if info, err := os.Stat(path); err == nil && info.Mode()&os.ModeSocket != 0 {
		os.Remove(path)
	}
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s. Error: %w", path, err)
	}
	if report == nil {
		report = func(error) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		path:    path,
		ln:      ln,
		handler: h,
		report:  report,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]net.Conn),
	}
	l.wg.Add(1)
	go l.accept()
	return l, nil
}

// Addr is the socket path.
func (l *Listener) Addr() string {
	return l.path
}

func (l *Listener) accept() {
	defer l.wg.Done()
	defer l.ln.Close()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			if l.draining.Load() && isTimeout(err) {
				// The backlog is empty.
				return
			}
			l.report(fmt.Errorf("failed to accept producer connection. Error: %w", err))
			continue
		}

		id := uuid.NewString()
		l.lock.Lock()
		l.conns[id] = conn
		if l.draining.Load() {
			conn.SetReadDeadline(time.Now().Add(drainGrace))
		}
		l.lock.Unlock()

		l.wg.Add(1)
		go l.serve(id, conn)
	}
}

func (l *Listener) serve(id string, conn net.Conn) {
	defer l.wg.Done()
	defer func() {
		conn.Close()
		l.lock.Lock()
		delete(l.conns, id)
		l.lock.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg := message{}
		if err := json.Unmarshal(line, &msg); err != nil {
			l.report(fmt.Errorf("producer %s sent a message that could not be decoded. Error: %w", id, err))
			continue
		}
		if err := l.handle(msg); err != nil {
			if l.ctx.Err() != nil {
				return
			}
			l.report(fmt.Errorf("producer %s: %w", id, err))
		}
		if l.draining.Load() {
			// Keep reading while the producer still has lines to deliver.
			conn.SetReadDeadline(time.Now().Add(drainGrace))
		}
	}
	if err := scanner.Err(); err != nil && l.ctx.Err() == nil && !isTimeout(err) {
		l.report(fmt.Errorf("producer %s connection failed. Error: %w", id, err))
	}
}

func (l *Listener) handle(msg message) error {
	switch msg.Type {
	case typeRecord:
		if msg.Record == nil {
			return errors.New("record message without a record")
		}
		return l.handler.Enqueue(l.ctx, *msg.Record)
	case typeRegister:
		if msg.Name == "" {
			return errors.New("register message without a name")
		}
		return l.handler.RegisterRemote(msg.Name, msg.ColorIndex)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Shutdown stops accepting connections once the backlog is taken and lets
// every connection deliver what it has already written. A connection that
// stays silent for drainGrace is closed. If ctx is done first, pending
// records are abandoned, the connections are closed and ctx.Err() is
// returned.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.lock.Lock()
	l.draining.Store(true)
	deadline := time.Now().Add(drainGrace)
	l.ln.SetDeadline(deadline)
	for _, conn := range l.conns {
		conn.SetReadDeadline(deadline)
	}
	l.lock.Unlock()

	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()

	var err error
	select {
	case <-finished:
	case <-ctx.Done():
		err = ctx.Err()
		l.cancel()
		l.ln.Close()
		l.lock.Lock()
		for _, conn := range l.conns {
			conn.Close()
		}
		l.lock.Unlock()
		<-finished
	}
	l.cancel()
	os.Remove(l.path)
	return err
}
