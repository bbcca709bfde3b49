package lsp

import (
	"testing"

	"writegood/internal/source"
)

func TestApplyChangesUTF16(t *testing.T) {
	text := "a🙂b\nsecond"
	got := applyChanges(text, []textDocumentContentChangeEvent{{
		Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 4}},
		Text:  "B",
	}})
	if got != "a🙂B\nsecond" {
		t.Fatalf("unexpected text %q", got)
	}
	got = applyChanges(got, []textDocumentContentChangeEvent{{Text: "replaced"}})
	if got != "replaced" {
		t.Fatalf("full sync failed: %q", got)
	}
}

func TestOffsetForPositionClamps(t *testing.T) {
	text := "ab\ncd"
	cases := []struct {
		pos  position
		want int
	}{
		{position{Line: 0, Character: 0}, 0},
		{position{Line: 0, Character: 9}, 2},
		{position{Line: 1, Character: 1}, 4},
		{position{Line: 7, Character: 0}, len(text)},
		{position{Line: -1, Character: 0}, 0},
	}
	for _, tc := range cases {
		if got := offsetForPosition(text, tc.pos); got != tc.want {
			t.Fatalf("offsetForPosition(%+v) = %d, want %d", tc.pos, got, tc.want)
		}
	}
}

func TestPositionForOffsetRoundTrip(t *testing.T) {
	text := "x\né🙂 tail"
	file := source.NewFile("t.md", text)
	for off := 0; off <= len(text); off++ {
		pos := positionForOffset(file, off)
		back := offsetForPosition(text, pos)
		if back > off {
			t.Fatalf("offset %d mapped to %+v and back to %d", off, pos, back)
		}
	}
	end := positionForOffset(file, len(text))
	if end != (position{Line: 1, Character: 9}) {
		t.Fatalf("unexpected end position %+v", end)
	}
}

func TestPositionForOffsetInsideRune(t *testing.T) {
	text := "x\ne\u0301\U0001F642 tail"
	file := source.NewFile("t.md", text)
	tests := []struct {
		offset int
		want   position
	}{
		{offset: 3, want: position{Line: 1, Character: 1}},
		{offset: 4, want: position{Line: 1, Character: 1}},
		{offset: 5, want: position{Line: 1, Character: 2}},
		{offset: 7, want: position{Line: 1, Character: 2}},
		{offset: 9, want: position{Line: 1, Character: 4}},
	}
	for _, tt := range tests {
		if got := positionForOffset(file, tt.offset); got != tt.want {
			t.Fatalf("positionForOffset(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}
