package aggregator

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/morfien101/logorganizer/queue"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink/console"
	"github.com/morfien101/logorganizer/sink/filesink"
)

const (
	// DefaultName is the representative name used when none is given.
	DefaultName = "total"
	// DefaultBaseDir is where log directories are created when none is given.
	DefaultBaseDir = "logs"
	// DefaultCloseTimeout bounds Close.
	DefaultCloseTimeout = 10 * time.Second
)

// Config describes an Aggregator. Start from DefaultConfig; the zero value of
// ConsoleLevel shows debug output.
type Config struct {
	// Name is the representative name. Records are written to
	// <BaseDir>/<Name>/<Name>.log.
	Name string
	// BaseDir holds one directory per representative name.
	BaseDir string
	// QueueCapacity bounds the number of records waiting for the consumer.
	QueueCapacity int
	// BackupCount caps the rotated files kept per log file.
	BackupCount int
	// MaxFileSize also rotates files by size. Zero rotates at midnight only.
	MaxFileSize datasize.ByteSize
	// CompressBackups gzips rotated files.
	CompressBackups bool
	// ConsoleLevel is the lowest severity shown on the console.
	ConsoleLevel record.Severity
	// ConsoleOut receives console output. Nil means stderr.
	ConsoleOut io.Writer
	// CloseTimeout bounds Close. Zero waits forever.
	CloseTimeout time.Duration
	// SocketPath, when set, accepts records from other processes.
	SocketPath string
	// Location decides where midnight is. Nil means time.Local.
	Location *time.Location
}

// DefaultConfig returns the configuration used by Open when nothing is
// changed.
func DefaultConfig() Config {
	return Config{
		Name:          DefaultName,
		BaseDir:       DefaultBaseDir,
		QueueCapacity: queue.DefaultCapacity,
		BackupCount:   filesink.DefaultBackupCount,
		ConsoleLevel:  console.DefaultMinSeverity,
		CloseTimeout:  DefaultCloseTimeout,
	}
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.BaseDir == "" {
		c.BaseDir = DefaultBaseDir
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = queue.DefaultCapacity
	}
	if c.BackupCount <= 0 {
		c.BackupCount = filesink.DefaultBackupCount
	}
	if c.Location == nil {
		c.Location = time.Local
	}
}

// validName rejects names that can not be used as a file name.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("logger name can not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("logger name %q can not be used as a file name", name)
	}
	return nil
}
