package source

type (
	// FileFlags encodes metadata about a document snapshot.
	FileFlags uint8
)

const (
	// FileVirtual marks a snapshot built from editor memory rather than disk.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is an immutable snapshot of a document's text with a line index.
// Offsets handed out by File are byte offsets into Content.
type File struct {
	Path    string
	Content string
	LineIdx []uint32 // offsets of every '\n'
	Flags   FileFlags
}

// LineSpan describes one line of a snapshot. End excludes the line break.
type LineSpan struct {
	Start int
	End   int
	Line  int // 0-based
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
