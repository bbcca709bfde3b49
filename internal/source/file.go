package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// NewFile builds a snapshot over editor text. The text is used as is:
// offsets reported against the snapshot match the caller's string.
func NewFile(path, text string) *File {
	return &File{
		Path:    normalizePath(path),
		Content: text,
		LineIdx: buildLineIndex(text),
		Flags:   FileVirtual,
	}
}

// Load reads a document from disk, normalizes CRLF/BOM and builds a snapshot.
func Load(path string) (*File, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content, hadBOM := removeBOM(string(raw))
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	}, nil
}

// Len returns the content length in bytes.
func (f *File) Len() int {
	return len(f.Content)
}

// LineCount returns the number of lines; an empty document has one line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// Line returns the span of the 0-based line n, clamped to the document. The
// span excludes the line break, including the '\r' of a CRLF pair.
func (f *File) Line(n int) LineSpan {
	if n < 0 {
		n = 0
	}
	if n > len(f.LineIdx) {
		n = len(f.LineIdx)
	}
	start := 0
	if n > 0 {
		start = int(f.LineIdx[n-1]) + 1
	}
	end := len(f.Content)
	if n < len(f.LineIdx) {
		end = int(f.LineIdx[n])
		if end > start && f.Content[end-1] == '\r' {
			end--
		}
	}
	return LineSpan{Start: start, End: end, Line: n}
}

// LineAt resolves the line that owns offset. Offsets past the end map to
// the last line.
func (f *File) LineAt(offset int) LineSpan {
	return f.Line(lineOf(f.LineIdx, f.clampOffset(offset)))
}

// LineText returns the text of the 0-based line n without its line break.
func (f *File) LineText(n int) string {
	ls := f.Line(n)
	return f.Content[ls.Start:ls.End]
}

// LineCol converts a byte offset into a 1-based line/column pair.
func (f *File) LineCol(offset int) LineCol {
	return toLineCol(f.LineIdx, f.clampOffset(offset))
}

func (f *File) clampOffset(offset int) uint32 {
	if offset < 0 {
		return 0
	}
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	v, err := safecast.Conv[uint32](offset)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
