// Package palette holds the fixed console colors and hands them out to named
// loggers in a repeatable way.
package palette

const (
	dim = "\033[2m"
	// Reset clears any color set by a palette entry.
	Reset = "\033[0m"
)

// Color is an ANSI escape sequence that selects a terminal color.
type Color struct {
	Name string
	Code string
}

// Palette is an ordered list of colors. Indexes wrap around.
type Palette []Color

var defaultPalette = Palette{
	{Name: "GREEN", Code: "\033[32m"},
	{Name: "YELLOW", Code: "\033[33m"},
	{Name: "BLUE", Code: "\033[34m"},
	{Name: "MAGENTA", Code: "\033[35m"},
	{Name: "CYAN", Code: "\033[36m"},
	{Name: "BRIGHT_GREEN", Code: dim + "\033[92m"},
	{Name: "BRIGHT_YELLOW", Code: dim + "\033[93m"},
	{Name: "BRIGHT_BLUE", Code: dim + "\033[94m"},
	{Name: "BRIGHT_MAGENTA", Code: dim + "\033[95m"},
	{Name: "BRIGHT_CYAN", Code: dim + "\033[96m"},
	// The last slot is the alert color.
	{Name: "RED", Code: "\033[31m"},
}

// Default returns a copy of the standard palette: five hues, the same five
// dimmed bright, then red.
func Default() Palette {
	p := make(Palette, len(defaultPalette))
	copy(p, defaultPalette)
	return p
}

// Color returns the color for index. Negative indexes count from the end.
func (p Palette) Color(index int) Color {
	if len(p) == 0 {
		return Color{}
	}
	i := index % len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// Alert is the final, reserved color.
func (p Palette) Alert() Color {
	return p.Color(-1)
}
