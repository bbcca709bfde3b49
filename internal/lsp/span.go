package lsp

import (
	"unicode/utf8"

	"writegood/internal/source"
)

// positionForOffset converts a byte offset in file to an LSP position. An
// offset inside a multi-byte rune maps to the start of that rune.
func positionForOffset(file *source.File, offset int) position {
	if file == nil {
		return position{}
	}
	if offset < 0 {
		offset = 0
	}
	if offset > file.Len() {
		offset = file.Len()
	}
	ls := file.LineAt(offset)
	for offset > ls.Start && offset < file.Len() && !utf8.RuneStart(file.Content[offset]) {
		offset--
	}
	return position{
		Line:      ls.Line,
		Character: source.UTF16Len(file.Content[ls.Start:offset]),
	}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	if file == nil {
		return lspRange{}
	}
	return lspRange{
		Start: positionForOffset(file, span.Start),
		End:   positionForOffset(file, span.End),
	}
}

func rangeContains(r lspRange, p position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character > r.End.Character {
		return false
	}
	return true
}
