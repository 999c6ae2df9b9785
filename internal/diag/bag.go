// Package diag collects compile-time diagnostics and renders them with
// source context. Display is capped: past the cap only a suppression
// counter grows, so a pathological input cannot flood the terminal.
package diag

import (
	"fmt"

	"kiln/internal/source"
)

// DisplayCap is the maximum number of diagnostics retained for display.
const DisplayCap = 5

// Diagnostic is one formatted message anchored to a source span.
type Diagnostic struct {
	Span    source.Span
	Message string
}

// Bag accumulates diagnostics up to DisplayCap and counts the overflow.
type Bag struct {
	items      []Diagnostic
	suppressed int
}

func NewBag() *Bag {
	return &Bag{items: make([]Diagnostic, 0, DisplayCap)}
}

// Report formats and records a diagnostic. Beyond DisplayCap the message
// is dropped and only the suppressed counter is incremented.
func (b *Bag) Report(span source.Span, format string, args ...any) {
	if len(b.items) >= DisplayCap {
		b.suppressed++
		return
	}
	b.items = append(b.items, Diagnostic{
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	})
}

// ErrorCount returns the number of retained diagnostics.
func (b *Bag) ErrorCount() int {
	return len(b.items)
}

// SuppressedCount returns the number of diagnostics dropped past the cap.
func (b *Bag) SuppressedCount() int {
	return b.suppressed
}

// TotalErrorCount returns retained plus suppressed.
func (b *Bag) TotalErrorCount() int {
	return len(b.items) + b.suppressed
}

// HasErrors reports whether anything was recorded at all.
func (b *Bag) HasErrors() bool {
	return b.TotalErrorCount() > 0
}

// Items returns the retained diagnostics. The slice aliases the Bag's
// internal storage and must not be modified.
func (b *Bag) Items() []Diagnostic {
	return b.items
}
