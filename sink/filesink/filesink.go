// Package filesink appends formatted records to a log file and rotates it.
//
// A file is rotated by the first write whose record timestamp falls on a later
// calendar day than the file's day boundary. The old file is renamed to
// <file>.<YYYY-MM-DD> and a fresh file is started. When MaxSize is set a file
// that grows past it is also rotated, and backups of the same day get a
// numeric suffix. At most BackupCount backups are kept, the oldest go first.
//
// File output never contains color codes.
package filesink

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink"
)

// DefaultBackupCount is the number of backups kept when none is configured.
const DefaultBackupCount = 100

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("file sink is closed")

// Options tune a FileSink.
type Options struct {
	// BackupCount caps the number of backups. Zero or less means DefaultBackupCount.
	BackupCount int
	// MaxSize rotates a file once it would grow past this size. Zero turns size rotation off.
	MaxSize datasize.ByteSize
	// Compress gzips backups after rotation.
	Compress bool
	// Location decides where midnight is. Nil means time.Local.
	Location *time.Location
	// ErrorReporter receives rotation failures. Nil discards them.
	ErrorReporter func(error)
}

// FileSink is a rotating log file. It is safe for concurrent use.
type FileSink struct {
	lock            sync.Mutex
	path            string
	opts            Options
	fp              *os.File
	dayBoundary     time.Time
	currentFileSize uint64
	closed          bool
	// pending holds rotation failures until the lock is released.
	pending []error

	rename   func(oldpath, newpath string) error
	openFile func(name string, flag int, perm os.FileMode) (*os.File, error)
}

// New opens or creates path for appending. An existing non-empty file keeps
// its modification date as the day boundary.
func New(path string, opts Options) (*FileSink, error) {
	if opts.BackupCount <= 0 {
		opts.BackupCount = DefaultBackupCount
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	fs := &FileSink{
		path:     path,
		opts:     opts,
		rename:   os.Rename,
		openFile: os.OpenFile,
	}
	if err := fs.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file %s. Error: %w", path, err)
	}
	if fs.currentFileSize > 0 {
		if info, err := fs.fp.Stat(); err == nil {
			fs.dayBoundary = startOfDay(info.ModTime(), opts.Location)
		}
	}
	return fs, nil
}

// Path is the active file.
func (fs *FileSink) Path() string {
	return fs.path
}

// Write appends rec, rotating first if rec starts a new day or the file is
// full. A failed rotation is reported and the record goes to the existing file.
func (fs *FileSink) Write(rec record.LogRecord) error {
	pending, err := fs.WriteDeferred(rec)
	// Reporters may write to this sink again.
	if fs.opts.ErrorReporter != nil {
		for _, p := range pending {
			fs.opts.ErrorReporter(p)
		}
	}
	return err
}

// WriteDeferred is Write that returns rotation failures instead of passing
// them to the ErrorReporter.
func (fs *FileSink) WriteDeferred(rec record.LogRecord) ([]error, error) {
	line := []byte(sink.Format(rec) + "\n")

	fs.lock.Lock()
	defer fs.lock.Unlock()
	err := fs.write(line, rec.Timestamp)
	pending := fs.pending
	fs.pending = nil
	return pending, err
}

func (fs *FileSink) write(line []byte, ts time.Time) error {
	if fs.closed {
		return ErrClosed
	}
	if fs.fp == nil {
		// A previous rotation could not create the file. Try again.
		if err := fs.open(); err != nil {
			return fmt.Errorf("failed to reopen log file %s. Error: %w", fs.path, err)
		}
	}

	day := startOfDay(ts, fs.opts.Location)
	switch {
	case fs.dayBoundary.IsZero():
		fs.dayBoundary = day
	case day.After(fs.dayBoundary):
		if err := fs.rotate(day); err != nil {
			fs.report(err)
		}
	case fs.tooLarge(len(line)):
		if err := fs.rotate(fs.dayBoundary); err != nil {
			fs.report(err)
		}
	}

	if fs.fp == nil {
		// The backup was made but the fresh file could not be created.
		if err := fs.open(); err != nil {
			return fmt.Errorf("no log file open for %s. Error: %w", fs.path, err)
		}
	}
	n, err := fs.fp.Write(line)
	fs.currentFileSize = fs.currentFileSize + uint64(n)
	return err
}

// tooLarge reports if writing next more bytes would pass MaxSize. The size is
// tracked from writes to avoid a stat per record. An empty file is never too
// large.
func (fs *FileSink) tooLarge(next int) bool {
	limit := fs.opts.MaxSize.Bytes()
	if limit == 0 || fs.currentFileSize == 0 {
		return false
	}
	return fs.currentFileSize+uint64(next) > limit
}

// report must be called with the lock held.
func (fs *FileSink) report(err error) {
	fs.pending = append(fs.pending, err)
}

// Close closes the active file. Further writes return ErrClosed.
func (fs *FileSink) Close() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	if fs.closed {
		return nil
	}
	fs.closed = true
	if fs.fp == nil {
		return nil
	}
	err := fs.fp.Close()
	fs.fp = nil
	return err
}
