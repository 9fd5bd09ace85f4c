package logger

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// StderrWriter returns the writer the CLI should hand to NewPrinter: the real
// stderr on Unix, and go-colorable's ANSI-translating wrapper on Windows
// consoles that don't natively understand escape codes. It also sets
// color.NoColor (turning coloring off) when stderr isn't attached to a
// terminal, since fatih/color
// defaults to on and piping output to a file or CI log shouldn't be full of
// escape sequences.
func StderrWriter() io.Writer {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		color.NoColor = true
		return os.Stderr
	}
	return colorable.NewColorableStderr()
}
