// Package diag implements the structured diagnostics of spec.md §4.I and
// §7: a severity, a source span, a message, and an optional note, with a
// renderer that underlines the span and shows surrounding context.
package diag

import (
	"fmt"
	"strings"

	"github.com/nwidger/m68kasm/arena"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// Error diagnostics are fatal: the driver will not write output when
	// any are present.
	Error Severity = iota
	// Warning diagnostics are advisory unless promoted (see
	// config.Diagnostics.WarningsAsErrors).
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Span identifies a byte range within a registered file. End is exclusive;
// a zero-width span (Start == End) still underlines a single column.
type Span struct {
	File       *arena.File
	Start, End int
}

// Kind names the taxonomy of spec.md §7 for diagnostics that care to record
// it (primarily for tests and future tooling; rendering does not depend on
// it).
type Kind string

const (
	KindParse           Kind = "parse"
	KindUndefinedSymbol Kind = "undefined-symbol"
	KindDuplicateLabel  Kind = "duplicate-label"
	KindDivisionByZero  Kind = "division-by-zero"
	KindLiteralOverflow Kind = "literal-overflow"
	KindTruncation      Kind = "truncation"
	KindIO              Kind = "io"
	// KindEncoding covers operand-shape and range errors raised by the
	// encoder that don't fall into one of the named taxonomy entries
	// above (wrong register class, branch out of range, and similar).
	KindEncoding Kind = "encoding"
)

// Diagnostic is a single structured error or warning.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Span     Span
	Message  string
	Note     string
}

// New creates an Error-severity Diagnostic at span.
func New(kind Kind, span Span, message string) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Span: span, Message: message}
}

// NewWarning creates a Warning-severity Diagnostic at span.
func NewWarning(kind Kind, span Span, message string) Diagnostic {
	return Diagnostic{Severity: Warning, Kind: kind, Span: span, Message: message}
}

// WithNote attaches a note and returns the Diagnostic by value, for chaining
// at the call site.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Note = note
	return d
}

// List aggregates diagnostics produced over the course of an assembly.
type List struct {
	items []Diagnostic
}

// Add appends one diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// AddAll appends every diagnostic in ds.
func (l *List) AddAll(ds []Diagnostic) {
	l.items = append(l.items, ds...)
}

// Items returns every diagnostic added so far, in insertion order.
func (l *List) Items() []Diagnostic {
	return l.items
}

// HasErrors reports whether any Error-severity diagnostic has been added.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// PromoteWarnings turns every Warning into an Error, in place. Used when
// config.Diagnostics.WarningsAsErrors is set.
func (l *List) PromoteWarnings() {
	for i := range l.items {
		l.items[i].Severity = Error
	}
}

// Options controls how Render/RenderWithOptions format a diagnostic's
// source context: how many lines surround the span and how many columns a
// tab expands to. These mirror config.Diagnostics.ContextLines/TabWidth, so
// a config file actually reaches the renderer instead of being decoded and
// ignored.
type Options struct {
	ContextLines int
	TabWidth     int
}

// DefaultOptions matches config.Default()'s Diagnostics section.
func DefaultOptions() Options {
	return Options{ContextLines: 1, TabWidth: 4}
}

// Render formats every diagnostic in the list using DefaultOptions.
func (l *List) Render() string {
	return l.RenderWithOptions(DefaultOptions())
}

// RenderWithOptions formats every diagnostic in the list the way spec.md
// §4.I describes: underline the span with carets, show the configured
// amount of surrounding context, expand tabs, append the note.
func (l *List) RenderWithOptions(opts Options) string {
	var sb strings.Builder
	for _, d := range l.items {
		sb.WriteString(RenderWithOptions(d, opts))
	}
	return sb.String()
}

// Render formats a single diagnostic using DefaultOptions.
func Render(d Diagnostic) string {
	return RenderWithOptions(d, DefaultOptions())
}

// RenderWithOptions formats a single diagnostic per opts.
func RenderWithOptions(d Diagnostic, opts Options) string {
	var sb strings.Builder

	if d.Span.File == nil {
		fmt.Fprintf(&sb, "%s: %s\n", d.Severity, d.Message)
		if d.Note != "" {
			fmt.Fprintf(&sb, "note: %s\n", d.Note)
		}
		return sb.String()
	}

	f := d.Span.File
	startLine, startCol := f.LineCol(d.Span.Start)
	endLine, endCol := f.LineCol(d.Span.End)
	if d.Span.End <= d.Span.Start {
		endLine, endCol = startLine, startCol+1
	}

	fmt.Fprintf(&sb, "%s: %s -> %s:%d:%d\n", d.Severity, d.Message, f.Path, startLine, startCol)

	first := startLine - opts.ContextLines
	if first < 1 {
		first = 1
	}
	last := endLine + opts.ContextLines

	for n := first; n <= last; n++ {
		line := f.Line(n)
		if n > f.LineCount() {
			break
		}
		expanded := strings.ReplaceAll(line, "\t", strings.Repeat(" ", opts.TabWidth))
		fmt.Fprintf(&sb, "%5d | %s\n", n, expanded)
		if n >= startLine && n <= endLine {
			fmt.Fprintf(&sb, "      | %s\n", caretLine(line, n, startLine, startCol, endLine, endCol, opts.TabWidth))
		}
	}

	if d.Note != "" {
		fmt.Fprintf(&sb, "note: %s\n", d.Note)
	}
	return sb.String()
}

func caretLine(line string, n, startLine, startCol, endLine, endCol, tabWidth int) string {
	var sb strings.Builder
	for i, ch := range line {
		col := i + 1
		inRange := inSpan(n, col, startLine, startCol, endLine, endCol)
		width := 1
		if ch == '\t' {
			width = tabWidth
		}
		mark := " "
		if inRange {
			mark = "^"
		}
		sb.WriteString(strings.Repeat(mark, width))
	}
	return sb.String()
}

func inSpan(line, col, startLine, startCol, endLine, endCol int) bool {
	if line < startLine || line > endLine {
		return false
	}
	if line == startLine && col < startCol {
		return false
	}
	if line == endLine && col >= endCol {
		return false
	}
	return true
}
