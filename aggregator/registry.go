package aggregator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/morfien101/logorganizer/producer"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink/filesink"
)

// RegisterStreamLogger attaches console output to name and returns a Logger
// whose records go through the queue. A negative colorIndex takes the next
// automatic color; an explicit index does not move the automatic counter.
// With alsoWriteFile the consumer also writes the records of name, without
// color, to <Dir>/<name>.log.
func (a *Aggregator) RegisterStreamLogger(name string, colorIndex int, alsoWriteFile bool) (*producer.Logger, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if a.State() >= Draining {
		return nil, ErrClosed
	}

	a.regLock.Lock()
	defer a.regLock.Unlock()
	if _, ok := a.registry[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateLogger, name)
	}

	reg := &registration{
		name:   name,
		stream: true,
	}
	if alsoWriteFile {
		fs, err := a.fileSinkFor(name)
		if err != nil {
			return nil, err
		}
		reg.fileSink = fs
	}

	var explicit *int
	if colorIndex >= 0 {
		explicit = &colorIndex
	}
	reg.colorIndex = a.colors.Resolve(explicit)
	a.console.Assign(name, reg.colorIndex)

	reg.logger = producer.New(name, a)
	a.registry[name] = reg
	return reg.logger, nil
}

// RegisterFileLogger attaches only a rotating file, <Dir>/<name>.log, to
// name. Its records are written directly by the calling goroutine and do not
// pass through the queue.
func (a *Aggregator) RegisterFileLogger(name string) (*producer.Logger, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if a.State() >= Draining {
		return nil, ErrClosed
	}

	a.regLock.Lock()
	defer a.regLock.Unlock()
	if _, ok := a.registry[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateLogger, name)
	}

	fs, err := a.fileSinkFor(name)
	if err != nil {
		return nil, err
	}
	reg := &registration{
		name:       name,
		colorIndex: AutoColor,
		fileSink:   fs,
	}
	reg.logger = producer.New(name, producer.ProducerFunc(func(rec record.LogRecord) {
		a.writeDirect(fs, rec)
	}))
	a.registry[name] = reg
	return reg.logger, nil
}

// Logger returns the Logger registered for name.
func (a *Aggregator) Logger(name string) (*producer.Logger, bool) {
	reg := a.lookup(name)
	if reg == nil {
		return nil, false
	}
	return reg.logger, true
}

// ColorIndex returns the console color index given to a stream logger.
func (a *Aggregator) ColorIndex(name string) (int, bool) {
	reg := a.lookup(name)
	if reg == nil || !reg.stream {
		return AutoColor, false
	}
	return reg.colorIndex, true
}

func (a *Aggregator) lookup(name string) *registration {
	a.regLock.RLock()
	defer a.regLock.RUnlock()
	return a.registry[name]
}

// fileSinkFor opens the file of name. The representative name shares the
// representative file. Must be called with regLock held.
func (a *Aggregator) fileSinkFor(name string) (*filesink.FileSink, error) {
	if name == a.config.Name {
		return a.representative, nil
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s. Error: %w", a.dir, err)
	}
	return filesink.New(a.logPath(name), a.fileOptions())
}

func (a *Aggregator) writeDirect(fs *filesink.FileSink, rec record.LogRecord) {
	if a.State() == Closed {
		a.dropped(rec)
		return
	}
	if err := fs.Write(rec); err != nil {
		a.internal.Report(fmt.Errorf("failed to write a %s record to %s. Error: %w", rec.LoggerName, fs.Path(), err))
	}
}

// Produce puts rec in the queue, blocking while it is full. Records produced
// once Close has started are dropped. A Produce that races with Close may
// still land behind the stop marker; such records are not written and Close
// prints how many there were. Stop producing before calling Close.
func (a *Aggregator) Produce(rec record.LogRecord) {
	if a.State() >= Draining {
		a.dropped(rec)
		return
	}
	a.queue.Put(rec)
}

// Enqueue is Produce for remote producers. It gives up when ctx is done.
func (a *Aggregator) Enqueue(ctx context.Context, rec record.LogRecord) error {
	if a.State() == Closed {
		return ErrClosed
	}
	return a.queue.PutContext(ctx, rec)
}

// RegisterRemote registers a stream logger on behalf of another process. A
// name that is already registered keeps its registration.
func (a *Aggregator) RegisterRemote(name string, colorIndex int) error {
	_, err := a.RegisterStreamLogger(name, colorIndex, false)
	if errors.Is(err, ErrDuplicateLogger) {
		return nil
	}
	return err
}

func (a *Aggregator) dropped(rec record.LogRecord) {
	a.dropNotice.Do(func() {
		a.notice("log aggregator %s is closed. Records from %s onwards are dropped.", a.config.Name, rec.LoggerName)
	})
}

func (a *Aggregator) notice(format string, args ...interface{}) {
	out := a.notices
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, format+"\n", args...)
}
