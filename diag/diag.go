// Package diag contains the diagnostic model shared by every
// compilation stage: lexer, parser, compiler and linker.
//
// Every stage accumulates diagnostics and keeps going where recovery
// is defined, so that one invocation can report more than a single
// problem. A pass fails only once it has run to completion, and all
// diagnostics collected along the way are reported together.
package diag

import (
	"fmt"
	"strings"
)

// SourceFile is an immutable text buffer plus a path label.
//
// It is handed out by pointer, never copied; every Diagnostic that
// points into the file keeps a reference to the same SourceFile so
// that rendering a diagnostic can recover the offending source line.
type SourceFile struct {
	// Path is the label used in diagnostic output; usually the path
	// the source was read from.
	Path string

	// Text is the full, unmodified source text.
	Text string

	lines []string
}

// NewSourceFile wraps source text and a path label into a SourceFile.
func NewSourceFile(path string, text string) *SourceFile {
	return &SourceFile{Path: path, Text: text}
}

// Line returns the zero-indexed line of text, or "<end of file>" if
// idx is past the end of the file.
func (f *SourceFile) Line(idx int) string {
	if f.lines == nil {
		// Splitting lazily means a SourceFile with no diagnostics
		// pointed at it never pays for this.
		f.lines = strings.Split(f.Text, "\n")
	}
	if idx < 0 || idx >= len(f.lines) {
		return "<end of file>"
	}
	return f.lines[idx]
}

// Location identifies a contiguous span of text on a single line of a
// SourceFile: (file, line, begin column, length).
//
// Spans that would straddle two lines collapse to a single-character
// span at the start of the first line; this is a known limitation, not
// a bug to be fixed here.
type Location struct {
	File        *SourceFile
	Line        int // zero-indexed
	BeginColumn int // zero-indexed
	Length      int
}

// String renders a location as "path:line:column", 1-indexed for
// human consumption.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File.Path, l.Line+1, l.BeginColumn+1)
}

// Range builds a Location spanning from one location to another. If
// the two locations are on different lines the result collapses to a
// single-character span at the start of from, per the documented
// cross-line limitation.
func Range(from, to Location) Location {
	if from.Line != to.Line {
		return Location{File: from.File, Line: from.Line, BeginColumn: from.BeginColumn, Length: 1}
	}
	end := to.BeginColumn + to.Length
	return Location{File: from.File, Line: from.Line, BeginColumn: from.BeginColumn, Length: end - from.BeginColumn}
}

// Diagnostic is a single compilation error, optionally tagged with a
// location. Link-level errors (e.g. a missing entry point) have no
// location.
type Diagnostic struct {
	Pos     *Location
	Message string
}

// At builds a located Diagnostic.
func At(pos Location, format string, args ...interface{}) Diagnostic {
	p := pos
	return Diagnostic{Pos: &p, Message: fmt.Sprintf(format, args...)}
}

// Untagged builds a Diagnostic with no source location, used for
// whole-module errors such as a missing entry point.
func Untagged(format string, args ...interface{}) Diagnostic {
	return Diagnostic{Pos: nil, Message: fmt.Sprintf(format, args...)}
}

// String renders one diagnostic in the §6 format: a separator, the
// "at path:line:" header, the offending source line prefixed "-> ",
// and a caret line pointing at the offending span.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString("-------------\n")

	if d.Pos == nil {
		b.WriteString(d.Message)
		b.WriteString("\n")
		return b.String()
	}

	pos := *d.Pos
	fmt.Fprintf(&b, "at %s:%d:\n\n", pos.File.Path, pos.Line+1)
	fmt.Fprintf(&b, "-> %s\n", pos.File.Line(pos.Line))
	b.WriteString("-> ")
	for i := 0; i < pos.BeginColumn; i++ {
		b.WriteByte(' ')
	}
	for i := 0; i < pos.Length; i++ {
		b.WriteByte('^')
	}
	fmt.Fprintf(&b, " %s\n", d.Message)
	return b.String()
}

// Diagnostics is a non-empty batch of Diagnostic collected during one
// pass. It implements error so that each stage can return it directly.
type Diagnostics []Diagnostic

// Error renders the banner ("N errors generated:") followed by every
// diagnostic in order, matching the §6 output format.
func (d Diagnostics) Error() string {
	var b strings.Builder
	if len(d) == 1 {
		b.WriteString("1 error generated:\n")
	} else {
		fmt.Fprintf(&b, "%d errors generated:\n", len(d))
	}
	for _, one := range d {
		b.WriteString(one.String())
	}
	return b.String()
}

// Append returns the Diagnostics extended with more, used by passes
// that collect errors from several sub-results before failing.
func (d Diagnostics) Append(more Diagnostics) Diagnostics {
	return append(d, more...)
}
