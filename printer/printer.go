// Package printer writes user-facing progress lines filtered by verbosity.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Ranked is anything that knows its place in a group, such as *comm.Comm.
type Ranked interface {
	Rank() int
	Size() int
}

// Printer writes messages whose level is below its verbosity.
//
// Level 0 messages print at the default verbosity of 1; verbosity 0 silences
// everything. Writes are serialized so lines from concurrent goroutines never
// interleave.
type Printer struct {
	header    string
	verbosity int

	mu  sync.Mutex
	out io.Writer
}

// New creates a Printer writing to out (os.Stdout when nil).
//
// Parameters:
//   - out: Destination of printed lines
//   - header: Prefix added when a call asks for it
//   - verbosity: Messages with level < verbosity are printed
func New(out io.Writer, header string, verbosity int) *Printer {
	if out == nil {
		out = os.Stdout
	}

	return &Printer{header: header, verbosity: verbosity, out: out}
}

// ForComm creates a Printer whose header names the caller's rank, e.g. "[2/8] ".
func ForComm(out io.Writer, r Ranked, verbosity int) *Printer {
	return New(out, fmt.Sprintf("[%d/%d] ", r.Rank(), r.Size()), verbosity)
}

// Header returns the prefix used when withHeader is set.
func (p *Printer) Header() string { return p.header }

// Verbosity returns the configured verbosity.
func (p *Printer) Verbosity() int { return p.verbosity }

// Enabled reports whether a message at level would be printed.
func (p *Printer) Enabled(level int) bool { return level < p.verbosity }

// Sprint concatenates the default formatting of args with no separators,
// prefixed by the header when withHeader is set.
func (p *Printer) Sprint(withHeader bool, args ...any) string {
	var b strings.Builder
	if withHeader {
		b.WriteString(p.header)
	}
	for _, arg := range args {
		fmt.Fprint(&b, arg)
	}

	return b.String()
}

// Print writes Sprint(withHeader, args...) and a newline when level < verbosity.
func (p *Printer) Print(level int, withHeader bool, args ...any) {
	if !p.Enabled(level) {
		return
	}

	line := p.Sprint(withHeader, args...) + "\n"

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.out, line)
}

// Printf is Print with a format string.
func (p *Printer) Printf(level int, withHeader bool, format string, args ...any) {
	p.Print(level, withHeader, fmt.Sprintf(format, args...))
}
