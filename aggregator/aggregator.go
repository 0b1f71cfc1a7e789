// Package aggregator funnels the records of many named loggers, possibly in
// several processes, through one bounded queue into one consumer goroutine.
// The consumer writes every record to the representative log file and renders
// the records of stream loggers on the console.
//
// An Aggregator moves through Created, Listening, Draining and Closed. Close
// must be called, normally with defer, or the consumer goroutine and any
// queued records are lost when the process exits:
//
//	agg, err := aggregator.Open(aggregator.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer agg.Close()
//	log, _ := agg.RegisterStreamLogger("main", aggregator.AutoColor, false)
//	log.Info("started")
//
// Registration is expected to finish before a logger starts emitting.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/morfien101/logorganizer/internallogger"
	"github.com/morfien101/logorganizer/palette"
	"github.com/morfien101/logorganizer/producer"
	"github.com/morfien101/logorganizer/queue"
	"github.com/morfien101/logorganizer/sink"
	"github.com/morfien101/logorganizer/sink/console"
	"github.com/morfien101/logorganizer/sink/filesink"
	"github.com/morfien101/logorganizer/transport"
)

// AutoColor asks for the next automatic console color.
const AutoColor = -1

var (
	// ErrShutdownHang is returned by Close when the consumer could not be
	// stopped within the close timeout. The aggregator is left Draining.
	ErrShutdownHang = errors.New("log consumer did not shut down")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("log aggregator is already started")
	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("log aggregator is closed")
	// ErrDuplicateLogger is returned when a name is registered twice.
	ErrDuplicateLogger = errors.New("logger is already registered")
)

// State of an Aggregator.
type State int32

const (
	// Created means the queue, directory and representative file exist but
	// nothing reads the queue.
	Created State = iota
	// Listening means the consumer is dispatching records.
	Listening
	// Draining means the stop marker is queued and the consumer is finishing.
	Draining
	// Closed is terminal.
	Closed
)

var stateNames = map[State]string{
	Created:   "created",
	Listening: "listening",
	Draining:  "draining",
	Closed:    "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// registration is what the aggregator knows about a named logger.
type registration struct {
	name       string
	colorIndex int
	stream     bool
	fileSink   *filesink.FileSink
	logger     *producer.Logger
}

// Aggregator owns the queue, the consumer and the sinks.
type Aggregator struct {
	config Config
	dir    string
	queue  *queue.Queue
	state  atomic.Int32
	// lifecycle serializes Start and Close.
	lifecycle sync.Mutex

	regLock  sync.RWMutex
	registry map[string]*registration
	colors   *palette.Assigner

	console        *console.Console
	representative *filesink.FileSink
	mirrors        []sink.Sink
	internal       *internallogger.InternalLogger
	listener       *transport.Listener

	done       chan struct{}
	closeOnce  sync.Once
	closeErr   error
	dropNotice sync.Once
	// notices receives the drop notices. Nil means stderr.
	notices io.Writer
}

// New creates the log directory, the queue and the representative log file.
// The consumer is not running until Start.
func New(cfg Config) (*Aggregator, error) {
	cfg.setDefaults()
	if err := validName(cfg.Name); err != nil {
		return nil, err
	}

	dir := filepath.Join(cfg.BaseDir, cfg.Name)
	// MkdirAll is fine with another process creating the same directory.
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s. Error: %w", dir, err)
	}

	a := &Aggregator{
		config:   cfg,
		dir:      dir,
		queue:    queue.New(cfg.QueueCapacity),
		registry: make(map[string]*registration),
		colors:   palette.NewAssigner(),
		console:  console.New(cfg.ConsoleOut, console.Options{MinSeverity: cfg.ConsoleLevel}),
		internal: internallogger.New(nil),
		done:     make(chan struct{}),
	}

	rep, err := filesink.New(a.logPath(cfg.Name), a.fileOptions())
	if err != nil {
		return nil, err
	}
	a.representative = rep
	a.internal.SetSink(rep)
	return a, nil
}

// Open is New followed by Start.
func Open(cfg Config) (*Aggregator, error) {
	a, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Aggregator) logPath(name string) string {
	return filepath.Join(a.dir, name+".log")
}

func (a *Aggregator) fileOptions() filesink.Options {
	return filesink.Options{
		BackupCount:   a.config.BackupCount,
		MaxSize:       a.config.MaxFileSize,
		Compress:      a.config.CompressBackups,
		Location:      a.config.Location,
		ErrorReporter: a.internal.Report,
	}
}

// Dir is the directory the log files are written to.
func (a *Aggregator) Dir() string {
	return a.dir
}

// State reports where the aggregator is in its lifecycle.
func (a *Aggregator) State() State {
	return State(a.state.Load())
}

// Internal returns the logger the aggregator reports its own faults through.
func (a *Aggregator) Internal() internallogger.IntLogger {
	return a.internal
}

// AddSink adds a sink that receives every dequeued record. It must be called
// before Start.
func (a *Aggregator) AddSink(s sink.Sink) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	if a.State() != Created {
		return ErrAlreadyStarted
	}
	a.mirrors = append(a.mirrors, s)
	return nil
}

// Start makes sure the log directory exists, starts the cross process
// listener if one is configured and starts the consumer. It returns once the
// consumer is running.
func (a *Aggregator) Start() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	switch a.State() {
	case Listening:
		return ErrAlreadyStarted
	case Draining, Closed:
		return ErrClosed
	}

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s. Error: %w", a.dir, err)
	}
	if a.config.SocketPath != "" {
		l, err := transport.Listen(a.config.SocketPath, a, a.internal.Report)
		if err != nil {
			return err
		}
		a.listener = l
	}

	a.startConsumer()
	a.state.Store(int32(Listening))
	return nil
}

func (a *Aggregator) startConsumer() {
	started := make(chan struct{})
	go a.consume(started)
	<-started
}

// Close queues the stop marker behind every record already queued and waits
// for the consumer to write them and exit, then closes the sinks. Only the
// first call does anything; later calls return the same result.
//
// Producer connections and the consumer each get the close timeout. If the
// consumer does not finish within it an error wrapping ErrShutdownHang is
// returned.
func (a *Aggregator) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.shutdown()
	})
	return a.closeErr
}

func (a *Aggregator) shutdown() error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if a.State() == Created {
		// Nothing has read the queue yet. Drain it anyway.
		a.startConsumer()
	}
	a.state.Store(int32(Draining))

	if a.listener != nil {
		listenerCtx, cancelListener := a.closeContext()
		err := a.listener.Shutdown(listenerCtx)
		cancelListener()
		if err != nil {
			a.internal.Errorf("producer connections were cut off during shutdown. Error: %s", err)
		}
	}

	// The consumer gets its own close timeout so a slow listener can not keep
	// the stop marker out of the queue.
	ctx, cancel := a.closeContext()
	defer cancel()
	if err := a.queue.PutSentinel(ctx); err != nil {
		return fmt.Errorf("%w: the stop marker could not be queued within %s", ErrShutdownHang, a.config.CloseTimeout)
	}
	select {
	case <-a.done:
	case <-ctx.Done():
		select {
		case <-a.done:
		default:
			return fmt.Errorf("%w: the consumer did not finish within %s", ErrShutdownHang, a.config.CloseTimeout)
		}
	}

	a.state.Store(int32(Closed))
	if late := a.queue.Discard(); late > 0 {
		a.notice("log aggregator %s dropped %d records queued behind the stop marker.", a.config.Name, late)
	}
	return a.closeSinks()
}

// closeContext is bounded by CloseTimeout when one is set.
func (a *Aggregator) closeContext() (context.Context, context.CancelFunc) {
	if a.config.CloseTimeout > 0 {
		return context.WithTimeout(context.Background(), a.config.CloseTimeout)
	}
	return context.WithCancel(context.Background())
}

func (a *Aggregator) closeSinks() error {
	errs := make([]error, 0)
	addErr := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	a.regLock.RLock()
	for _, reg := range a.registry {
		if reg.fileSink != nil && reg.fileSink != a.representative {
			addErr(reg.fileSink.Close())
		}
	}
	a.regLock.RUnlock()
	for _, m := range a.mirrors {
		addErr(m.Close())
	}
	addErr(a.console.Close())
	addErr(a.representative.Close())
	return errors.Join(errs...)
}
