package producer

import (
	"strings"

	"github.com/morfien101/logorganizer/record"
)

// LineWriter is an io.Writer that logs each line written to it. It lets the
// standard library log package, or a child process pipe, feed a Logger.
type LineWriter struct {
	logger   *Logger
	severity record.Severity
	partial  string
}

// Writer returns a LineWriter that logs at sev. A LineWriter is not safe for
// concurrent use.
func (l *Logger) Writer(sev record.Severity) *LineWriter {
	return &LineWriter{
		logger:   l,
		severity: sev,
	}
}

// Write logs every complete line in p. A trailing partial line is held until
// the next Write or Flush.
func (lw *LineWriter) Write(p []byte) (int, error) {
	data := lw.partial + string(p)
	lines := strings.Split(data, "\n")
	lw.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		lw.logger.Log(lw.severity, strings.TrimSuffix(line, "\r"))
	}
	return len(p), nil
}

// Flush logs any held partial line.
func (lw *LineWriter) Flush() {
	if lw.partial == "" {
		return
	}
	lw.logger.Log(lw.severity, lw.partial)
	lw.partial = ""
}
