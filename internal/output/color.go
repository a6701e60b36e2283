package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/aryankumar/netdiscover/internal/executor"
)

// ColorScheme provides color functions for different output elements
type ColorScheme struct {
	// Hostname colors device names
	Hostname func(format string, a ...interface{}) string

	// Success colors classified devices
	Success func(format string, a ...interface{}) string

	// Error colors failures
	Error func(format string, a ...interface{}) string

	// Warning colors unclassified and empty devices
	Warning func(format string, a ...interface{}) string

	// Header colors table headers
	Header func(format string, a ...interface{}) string

	// Duration colors duration values
	Duration func(format string, a ...interface{}) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme
// Colors are automatically disabled for non-TTY outputs or when noColor is true
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	useColor := !noColor && isTTY(w)

	if !useColor {
		none := color.New()
		none.DisableColor()
		plain := none.Sprintf
		return &ColorScheme{
			Hostname: plain,
			Success:  plain,
			Error:    plain,
			Warning:  plain,
			Header:   plain,
			Duration: plain,
			Disabled: true,
		}
	}

	return &ColorScheme{
		Hostname: colorize(color.FgCyan, color.Bold),
		Success:  colorize(color.FgGreen),
		Error:    colorize(color.FgRed, color.Bold),
		Warning:  colorize(color.FgYellow),
		Header:   colorize(color.FgWhite, color.Bold),
		Duration: colorize(color.FgBlue),
		Disabled: false,
	}
}

// colorize forces color on; the TTY decision is made per writer, not from stdout
func colorize(attrs ...color.Attribute) func(format string, a ...interface{}) string {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprintf
}

// isTTY checks if the writer is a TTY
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor returns the color function for a device status name
func (cs *ColorScheme) StatusColor(status string) func(format string, a ...interface{}) string {
	switch status {
	case executor.StatusClassified.String():
		return cs.Success
	case executor.StatusFailed.String():
		return cs.Error
	default:
		return cs.Warning
	}
}
