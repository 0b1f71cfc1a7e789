// Package console renders records on the terminal. Each logger name is given a
// color from the palette and every line is followed by a reset sequence.
// Records below the minimum severity are not shown.
package console

import (
	"io"
	"os"
	"sync"

	"github.com/morfien101/logorganizer/palette"
	"github.com/morfien101/logorganizer/record"
	"github.com/morfien101/logorganizer/sink"
)

// DefaultMinSeverity hides debug output on the terminal.
const DefaultMinSeverity = record.INFO

// Options tune a Console.
type Options struct {
	// MinSeverity is the lowest severity shown.
	MinSeverity record.Severity
	// Palette defaults to palette.Default().
	Palette palette.Palette
}

// Console is a sink that writes colored lines. It is safe for concurrent use.
type Console struct {
	lock    sync.Mutex
	out     io.Writer
	min     record.Severity
	palette palette.Palette
	colors  map[string]palette.Color
}

// New returns a Console writing to out. A nil out means stderr.
func New(out io.Writer, opts Options) *Console {
	if out == nil {
		out = os.Stderr
	}
	if len(opts.Palette) == 0 {
		opts.Palette = palette.Default()
	}
	return &Console{
		out:     out,
		min:     opts.MinSeverity,
		palette: opts.Palette,
		colors:  make(map[string]palette.Color),
	}
}

// Assign sets the color index used for a logger name.
func (c *Console) Assign(name string, colorIndex int) palette.Color {
	color := c.palette.Color(colorIndex)
	c.lock.Lock()
	c.colors[name] = color
	c.lock.Unlock()
	return color
}

// ColorOf returns the color assigned to name.
func (c *Console) ColorOf(name string) (palette.Color, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	color, ok := c.colors[name]
	return color, ok
}

// Render returns the colored text for rec without writing it. Loggers with no
// assigned color are rendered plain.
func (c *Console) Render(rec record.LogRecord) string {
	color, ok := c.ColorOf(rec.LoggerName)
	if !ok {
		return sink.Format(rec)
	}
	return color.Code + sink.Format(rec) + palette.Reset
}

// Write prints rec if it is at or above the minimum severity.
func (c *Console) Write(rec record.LogRecord) error {
	if !rec.AtLeast(c.min) {
		return nil
	}
	line := c.Render(rec) + "\n"
	c.lock.Lock()
	defer c.lock.Unlock()
	_, err := io.WriteString(c.out, line)
	return err
}

// Close has nothing to release. The terminal is not closed.
func (c *Console) Close() error {
	return nil
}
