package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"kiln/internal/source"
)

var errLabel = color.New(color.FgRed, color.Bold)

// Write renders every retained diagnostic with its source line and a
// caret marker, followed by a suppression summary if any were dropped.
// Expected shape per diagnostic:
//
//	main.kn:3:9: error: undefined thing
//	  total = total + 1
//	          ^~~~~
func (b *Bag) Write(w io.Writer, fs *source.FileSet, colorize bool) {
	for i := range b.items {
		d := &b.items[i]
		writeOne(w, fs, d, colorize)
	}
	if b.suppressed > 0 {
		fmt.Fprintf(w, "... and %d more error(s)\n", b.suppressed)
	}
}

func writeOne(w io.Writer, fs *source.FileSet, d *Diagnostic, colorize bool) {
	label := "error"
	if colorize {
		label = errLabel.Sprint("error")
	}

	f := fs.Get(d.Span.File)
	if f == nil {
		fmt.Fprintf(w, "%s: %s\n", label, d.Message)
		return
	}

	start, _ := fs.Resolve(d.Span)
	fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", f.Path, start.Line, start.Col, label, d.Message)

	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s\n", caretLine(line, start.Col, d.Span.Len()))
}

// caretLine builds the "^~~~" underline. The pad is measured with
// runewidth so the caret lands under the right column even when the
// line contains wide runes.
func caretLine(line string, col uint32, spanLen uint32) string {
	prefix := line
	if int(col)-1 <= len(line) {
		prefix = line[:col-1]
	}
	pad := runewidth.StringWidth(prefix)

	marks := int(spanLen)
	if marks < 1 {
		marks = 1
	}
	if rest := len(line) - len(prefix); marks > rest && rest > 0 {
		marks = rest
	}
	return strings.Repeat(" ", pad) + "^" + strings.Repeat("~", marks-1)
}
