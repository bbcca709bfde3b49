package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLineAt(t *testing.T) {
	f := NewFile("notes/a.md", "first line\nsecond\n\nlast")
	tests := []struct {
		name   string
		offset int
		want   LineSpan
	}{
		{name: "start of document", offset: 0, want: LineSpan{Start: 0, End: 10, Line: 0}},
		{name: "inside first line", offset: 4, want: LineSpan{Start: 0, End: 10, Line: 0}},
		{name: "newline belongs to its line", offset: 10, want: LineSpan{Start: 0, End: 10, Line: 0}},
		{name: "second line start", offset: 11, want: LineSpan{Start: 11, End: 17, Line: 1}},
		{name: "empty line", offset: 18, want: LineSpan{Start: 18, End: 18, Line: 2}},
		{name: "last line", offset: 20, want: LineSpan{Start: 19, End: 23, Line: 3}},
		{name: "past the end clamps", offset: 99, want: LineSpan{Start: 19, End: 23, Line: 3}},
		{name: "negative clamps", offset: -3, want: LineSpan{Start: 0, End: 10, Line: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.LineAt(tt.offset); got != tt.want {
				t.Fatalf("LineAt(%d) = %+v, want %+v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestLineExcludesCarriageReturn(t *testing.T) {
	f := NewFile("crlf.md", "one\r\ntwo\r\n\r\nend")
	tests := []struct {
		line int
		want LineSpan
	}{
		{line: 0, want: LineSpan{Start: 0, End: 3, Line: 0}},
		{line: 1, want: LineSpan{Start: 5, End: 8, Line: 1}},
		{line: 2, want: LineSpan{Start: 10, End: 10, Line: 2}},
		{line: 3, want: LineSpan{Start: 12, End: 15, Line: 3}},
	}
	for _, tt := range tests {
		if got := f.Line(tt.line); got != tt.want {
			t.Fatalf("Line(%d) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
	if got := f.LineText(1); got != "two" {
		t.Fatalf("LineText(1) = %q, want %q", got, "two")
	}
}

func TestEmptyFileHasOneLine(t *testing.T) {
	f := NewFile("", "")
	if f.LineCount() != 1 {
		t.Fatalf("expected 1 line, got %d", f.LineCount())
	}
	if got := f.LineAt(0); got != (LineSpan{}) {
		t.Fatalf("unexpected span %+v", got)
	}
}

func TestLineColIsOneBased(t *testing.T) {
	f := NewFile("x", "ab\ncd")
	if got := f.LineCol(4); got != (LineCol{Line: 2, Col: 2}) {
		t.Fatalf("unexpected line/col %+v", got)
	}
	if got := f.LineText(1); got != "cd" {
		t.Fatalf("unexpected line text %q", got)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFone\r\ntwo\r\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Content != "one\ntwo\n" {
		t.Fatalf("unexpected content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
}

func TestUTF16CursorSurrogates(t *testing.T) {
	text := "a🙂b é"
	c := NewUTF16Cursor(text)
	// 'a' = 1 unit, emoji = 2 units, 'b' = 1 unit
	if got := c.ByteOffset(1); got != 1 {
		t.Fatalf("offset 1 -> %d", got)
	}
	if got := c.ByteOffset(2); got != 1 {
		t.Fatalf("offset inside surrogate pair -> %d, want 1", got)
	}
	if got := c.ByteOffset(3); got != 5 {
		t.Fatalf("offset 3 -> %d, want 5", got)
	}
	if got := c.ByteOffset(0); got != 0 {
		t.Fatalf("rewind -> %d", got)
	}
	if got := c.ByteOffset(100); got != len(text) {
		t.Fatalf("past end -> %d, want %d", got, len(text))
	}
	if got := UTF16Len(text); got != 6 {
		t.Fatalf("UTF16Len = %d, want 6", got)
	}
}

func TestSpanClamp(t *testing.T) {
	if got := (Span{Start: 3, End: 50}).Clamp(10); got != (Span{Start: 3, End: 10}) {
		t.Fatalf("unexpected clamp %+v", got)
	}
	if got := (Span{Start: 12, End: 50}).Clamp(10); !got.Empty() {
		t.Fatalf("expected empty span, got %+v", got)
	}
}
