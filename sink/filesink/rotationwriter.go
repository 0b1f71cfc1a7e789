package filesink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	backupDateLayout = "2006-01-02"
	compressedSuffix = ".gz"
)

// RotationError is reported when the active file could not be moved aside, a
// backup could not be compressed or old backups could not be removed. The
// record being written is never dropped because of it.
type RotationError struct {
	Path string
	Op   string
	Err  error
}

func (e *RotationError) Error() string {
	return fmt.Sprintf("rotation of %s failed to %s: %s", e.Path, e.Op, e.Err)
}

func (e *RotationError) Unwrap() error {
	return e.Err
}

// startOfDay truncates t to midnight in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// open opens the active file for appending and records its size.
// The day boundary is left alone so a failed rotation is retried on the next write.
func (fs *FileSink) open() error {
	fp, err := fs.openFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := fp.Stat()
	if err != nil {
		fp.Close()
		return err
	}
	fs.fp = fp
	fs.currentFileSize = uint64(info.Size())
	return nil
}

// rotate moves the active file to a dated backup and opens a fresh one.
// newBoundary becomes the day boundary of the new file.
func (fs *FileSink) rotate(newBoundary time.Time) error {
	backup, err := fs.backupName(fs.dayBoundary)
	if err != nil {
		return &RotationError{Path: fs.path, Op: "name backup", Err: err}
	}

	if fs.fp != nil {
		fs.fp.Close()
		fs.fp = nil
	}

	if err := fs.rename(fs.path, backup); err != nil {
		// Keep appending to the existing file.
		if openErr := fs.open(); openErr != nil {
			return &RotationError{Path: fs.path, Op: "reopen", Err: openErr}
		}
		return &RotationError{Path: fs.path, Op: "rename", Err: err}
	}
	// The old day is in the backup now, whatever happens to the new file.
	fs.dayBoundary = newBoundary
	fs.currentFileSize = 0

	if fs.opts.Compress {
		if err := compressFile(backup); err != nil {
			fs.report(&RotationError{Path: backup, Op: "compress", Err: err})
		}
	}
	fs.deleteOldFiles()

	if err := fs.open(); err != nil {
		return &RotationError{Path: fs.path, Op: "create", Err: err}
	}
	return nil
}

// backupName finds a free backup file name for the given day. Backups of the
// same day get a numeric suffix.
func (fs *FileSink) backupName(day time.Time) (string, error) {
	base := fs.path + "." + day.Format(backupDateLayout)
	candidate := base
	for seq := 1; seq < 10000; seq++ {
		if !exists(candidate) && !exists(candidate+compressedSuffix) {
			return candidate, nil
		}
		candidate = base + "." + strconv.Itoa(seq)
	}
	return "", fmt.Errorf("no free backup name for %s", base)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type backupFile struct {
	path string
	day  string
	seq  int
}

// Backups lists the rotated files of this sink, oldest first.
func (fs *FileSink) Backups() ([]string, error) {
	found, err := fs.listBackups()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(found))
	for i, b := range found {
		paths[i] = b.path
	}
	return paths, nil
}

func (fs *FileSink) listBackups() ([]backupFile, error) {
	dir := filepath.Dir(fs.path)
	pattern := regexp.MustCompile(
		`^` + regexp.QuoteMeta(filepath.Base(fs.path)) + `\.(\d{4}-\d{2}-\d{2})(?:\.(\d+))?(?:\.gz)?$`,
	)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	found := make([]backupFile, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		seq := 0
		if match[2] != "" {
			seq, _ = strconv.Atoi(match[2])
		}
		found = append(found, backupFile{
			path: filepath.Join(dir, entry.Name()),
			day:  match[1],
			seq:  seq,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].day != found[j].day {
			return found[i].day < found[j].day
		}
		return found[i].seq < found[j].seq
	})
	return found, nil
}

// deleteOldFiles removes the oldest backups until at most BackupCount remain.
func (fs *FileSink) deleteOldFiles() {
	found, err := fs.listBackups()
	if err != nil {
		fs.report(&RotationError{Path: fs.path, Op: "list backups", Err: err})
		return
	}
	excess := len(found) - fs.opts.BackupCount
	for i := 0; i < excess; i++ {
		if err := os.Remove(found[i].path); err != nil {
			fs.report(&RotationError{Path: found[i].path, Op: "remove", Err: err})
		}
	}
}

// compressFile replaces path with a gzip copy at path.gz.
func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(path+compressedSuffix, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		os.Remove(out.Name())
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(out.Name())
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return err
	}
	in.Close()
	return os.Remove(path)
}
