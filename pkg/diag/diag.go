// Package diag implements diagnostic collection: user-visible errors and
// warnings accumulate in a Bag rather than aborting the process on the
// first one, so a single run reports as many independent problems as
// possible (spec §7).
package diag

import (
	"fmt"
	"os"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) label() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "note"
	}
}

// Diagnostic is one reported problem, formatted per spec §6:
// "<file>:<line>:<col>: error: <message>".
type Diagnostic struct {
	File     string
	Line     int
	Col      int
	Len      int
	Severity Severity
	Message  string
	WarnName string // set for warnings, appended as "[-Wname]"
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Col, d.Severity.label(), d.Message)
	if d.Severity == Warning && d.WarnName != "" {
		s += fmt.Sprintf(" [-W%s]", d.WarnName)
	}
	return s
}

// SourceLoader supplies the source text for a file so the caret-pointing
// printer can render context lines; the driver installs one bound to its
// loaded file records.
type SourceLoader interface {
	Line(file string, line int) (string, bool)
}

// Bag accumulates diagnostics for the compilation run. Each source File
// tracks its own "errored" flag (spec §3/§7); Bag additionally exposes a
// run-wide Errored for the CLI's exit code.
type Bag struct {
	items   []Diagnostic
	errored map[string]bool
	Source  SourceLoader
}

func NewBag() *Bag {
	return &Bag{errored: make(map[string]bool)}
}

func (b *Bag) add(d Diagnostic) {
	b.items = append(b.items, d)
	if d.Severity == Error {
		b.errored[d.File] = true
	}
}

// Errorf records a fatal-to-the-construct but non-aborting error.
func (b *Bag) Errorf(file string, line, col, tokLen int, format string, args ...interface{}) {
	b.add(Diagnostic{File: file, Line: line, Col: col, Len: tokLen, Severity: Error,
		Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning, tagged with the warning's flag name for the
// "[-Wname]" suffix (mirrors the teacher's util.Warn formatting).
func (b *Bag) Warnf(file string, line, col, tokLen int, warnName, format string, args ...interface{}) {
	b.add(Diagnostic{File: file, Line: line, Col: col, Len: tokLen, Severity: Warning,
		WarnName: warnName, Message: fmt.Sprintf(format, args...)})
}

// Notef records a secondary note, indented per spec §6 ("Secondary notes
// indent with a tab").
func (b *Bag) Notef(file string, line, col int, format string, args ...interface{}) {
	b.add(Diagnostic{File: file, Line: line, Col: col, Severity: Note,
		Message: fmt.Sprintf(format, args...)})
}

// ErroredFile reports whether file has had at least one error recorded.
func (b *Bag) ErroredFile(file string) bool { return b.errored[file] }

// Errored reports whether any file in the run has recorded an error; the
// CLI driver uses this for its exit code (spec §6).
func (b *Bag) Errored() bool { return len(b.errored) > 0 }

// Diagnostics returns all recorded diagnostics in emission order.
func (b *Bag) Diagnostics() []Diagnostic { return b.items }

// Emit writes every diagnostic to w, with a caret-pointing source line for
// each when a SourceLoader is installed (grounded on the teacher's
// util.printErrorLine).
func (b *Bag) Emit(w *os.File) {
	for _, d := range b.items {
		if d.Severity == Note {
			fmt.Fprintf(w, "\t%s\n", d.String())
			continue
		}
		fmt.Fprintln(w, d.String())
		if b.Source == nil {
			continue
		}
		line, ok := b.Source.Line(d.File, d.Line)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %s\n", line)
		col := d.Col
		if col < 1 {
			col = 1
		}
		caretLen := d.Len
		if caretLen < 1 {
			caretLen = 1
		}
		fmt.Fprintf(w, "  %s\033[32m^%s\033[0m\n", strings.Repeat(" ", col-1), strings.Repeat("~", caretLen-1))
	}
}

// Internal panics with an internal-compiler-error message (spec §7 kind 7).
// It is never recovered inside the core: invariant violations are bugs and
// must be unreachable in a correct implementation.
func Internal(file string, line int, format string, args ...interface{}) {
	panic(fmt.Sprintf("%s:%d: internal compiler error: %s", file, line, fmt.Sprintf(format, args...)))
}
