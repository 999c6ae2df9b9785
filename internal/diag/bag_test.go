package diag

import (
	"strings"
	"testing"

	"kiln/internal/source"
)

func TestReportCapAndSuppression(t *testing.T) {
	b := NewBag()
	for i := 0; i < 6; i++ {
		b.Report(source.Span{}, "problem %d", i)
	}
	if got := b.ErrorCount(); got != 5 {
		t.Fatalf("ErrorCount: got %d, want 5", got)
	}
	if got := b.SuppressedCount(); got != 1 {
		t.Fatalf("SuppressedCount: got %d, want 1", got)
	}
	if got := b.TotalErrorCount(); got != 6 {
		t.Fatalf("TotalErrorCount: got %d, want 6", got)
	}
}

func TestHasErrors(t *testing.T) {
	b := NewBag()
	if b.HasErrors() {
		t.Fatal("empty bag must not report errors")
	}
	b.Report(source.Span{}, "boom")
	if !b.HasErrors() {
		t.Fatal("bag with one diagnostic must report errors")
	}
}

func TestWriteRendersCaretAndSummary(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.kn", []byte("x = nope;\n"))

	b := NewBag()
	// span covers "nope"
	b.Report(source.Span{File: id, Start: 4, End: 8}, "undefined thing")
	for i := 0; i < 6; i++ {
		b.Report(source.Span{File: id, Start: 0, End: 1}, "filler %d", i)
	}

	var sb strings.Builder
	b.Write(&sb, fs, false)
	out := sb.String()

	if !strings.Contains(out, "main.kn:1:5: error: undefined thing") {
		t.Fatalf("missing header, got:\n%s", out)
	}
	if !strings.Contains(out, "  x = nope;\n      ^~~~\n") {
		t.Fatalf("missing caret line, got:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more error(s)") {
		t.Fatalf("missing suppression summary, got:\n%s", out)
	}
}

func TestWriteEmptySpanStillMarks(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.kn", []byte("abc\n"))

	b := NewBag()
	b.Report(source.Span{File: id, Start: 1, End: 1}, "here")

	var sb strings.Builder
	b.Write(&sb, fs, false)
	if !strings.Contains(sb.String(), "\n   ^\n") {
		t.Fatalf("empty span must render a single caret, got:\n%s", sb.String())
	}
}
