package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.kn", []byte("alpha\nbeta\ngamma\n"))

	cases := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},  // 'a' of alpha
		{4, 1, 5},  // last 'a' of alpha
		{6, 2, 1},  // 'b' of beta
		{11, 3, 1}, // 'g' of gamma
		{15, 3, 5}, // last 'a' of gamma
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start.Line != tc.line || start.Col != tc.col {
			t.Fatalf("offset %d: got %d:%d, want %d:%d", tc.off, start.Line, start.Col, tc.line, tc.col)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.kn", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	if got := f.GetLine(1); got != "first" {
		t.Fatalf("line 1: got %q", got)
	}
	if got := f.GetLine(2); got != "second" {
		t.Fatalf("line 2: got %q", got)
	}
	if got := f.GetLine(3); got != "third" {
		t.Fatalf("line 3: got %q", got)
	}
	if got := f.GetLine(4); got != "" {
		t.Fatalf("line 4: got %q, want empty", got)
	}
}

func TestLoadNormalization(t *testing.T) {
	fs := NewFileSet()
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\r\nb")...)
	content = removeBOM(content)
	content = normalizeCRLF(content)
	id := fs.Add("crlf.kn", content, true)
	f := fs.Get(id)
	if string(f.Content) != "a\nb" {
		t.Fatalf("normalized content: got %q", f.Content)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 0, Start: 4, End: 8}
	b := Span{File: 0, Start: 2, End: 6}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 8 {
		t.Fatalf("cover: got %v", c)
	}
	other := Span{File: 1, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file cover must not extend: got %v", got)
	}
}
