// Package logger collects and renders the diagnostics produced while
// resolving, crawling, and writing a bundle. Unlike esbuild's logger this one
// carries no source-span machinery: this project has no lexer/parser AST to
// point a line/column tracker at, so every message is anchored to a file path
// and a specifier (when one is relevant) instead of an offset into source
// text.
package logger

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

type Kind uint8

const (
	Error Kind = iota
	Warning
	Debug
	Verbose
)

func (k Kind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Debug:
		return "debug"
	default:
		return "verbose"
	}
}

// Msg is one diagnostic. Path and Specifier are both optional; a Msg about a
// resolve failure sets both, a Msg about a malformed manifest sets only Path.
type Msg struct {
	Kind      Kind
	Path      string
	Specifier string
	Text      string
}

// Log accumulates messages from concurrent resolver/crawler goroutines. It is
// safe to call Add* from multiple goroutines at once, which the crawler's
// errgroup workers rely on.
type Log struct {
	mutex    sync.Mutex
	Level    Kind
	msgs     []Msg
	hasError bool
}

// NewLog returns a Log that keeps messages up to and including level.
func NewLog(level Kind) *Log {
	return &Log{Level: level}
}

func (log *Log) add(msg Msg) {
	if msg.Kind > log.Level {
		return
	}
	log.mutex.Lock()
	defer log.mutex.Unlock()
	log.msgs = append(log.msgs, msg)
	if msg.Kind == Error {
		log.hasError = true
	}
}

func (log *Log) AddError(path string, text string) {
	log.add(Msg{Kind: Error, Path: path, Text: text})
}

func (log *Log) AddErrorf(path string, format string, args ...interface{}) {
	log.AddError(path, fmt.Sprintf(format, args...))
}

func (log *Log) AddResolveError(path string, specifier string, text string) {
	log.add(Msg{Kind: Error, Path: path, Specifier: specifier, Text: text})
}

func (log *Log) AddWarning(path string, text string) {
	log.add(Msg{Kind: Warning, Path: path, Text: text})
}

func (log *Log) AddDebug(path string, text string) {
	log.add(Msg{Kind: Debug, Path: path, Text: text})
}

func (log *Log) HasErrors() bool {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	return log.hasError
}

func (log *Log) Msgs() []Msg {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	out := make([]Msg, len(log.msgs))
	copy(out, log.msgs)
	return out
}

// Printer renders messages one per line, matching the spec's "process writes
// a single diagnostic line per error to stderr" requirement. Coloring is
// delegated to fatih/color, which already no-ops when its target isn't a
// terminal (wired up by the caller via color.NoColor).
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) Printer {
	return Printer{w: w}
}

func (p Printer) Print(msg Msg) {
	label := kindColor(msg.Kind).Sprint(msg.Kind.String())
	switch {
	case msg.Path != "" && msg.Specifier != "":
		fmt.Fprintf(p.w, "%s: %s: could not resolve %q: %s\n", label, msg.Path, msg.Specifier, msg.Text)
	case msg.Path != "":
		fmt.Fprintf(p.w, "%s: %s: %s\n", label, msg.Path, msg.Text)
	default:
		fmt.Fprintf(p.w, "%s: %s\n", label, msg.Text)
	}
}

func (p Printer) PrintAll(msgs []Msg) {
	for _, msg := range msgs {
		p.Print(msg)
	}
}

func kindColor(kind Kind) *color.Color {
	switch kind {
	case Error:
		return color.New(color.FgRed, color.Bold)
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}
