package decor

import "fmt"

// Kind tags the variant of an Entry.
type Kind uint8

const (
	// KindLineMarker styles a whole line; ranked first at equal positions.
	KindLineMarker Kind = iota
	// KindHighlight marks a character range.
	KindHighlight
	// KindAnnotation is a zero-width widget carrying a message.
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindLineMarker:
		return "line"
	case KindHighlight:
		return "highlight"
	case KindAnnotation:
		return "annotation"
	}
	return "unknown"
}

// Side says which side of its anchor a zero-width entry attaches to.
type Side int8

const (
	SideBefore Side = -1
	SideAfter  Side = 1
)

// Style classes applied to decorations.
const (
	ClassHighlight  = "write-good-highlight"
	ClassLine       = "write-good-line"
	ClassSuggestion = "write-good-suggestion"
)

// Entry is one decoration. Pos is the offset a rendering surface places the
// entry at: the line start for line markers, the range start for highlights
// and the anchor for annotations. End is only meaningful for highlights and
// equals Pos otherwise.
type Entry struct {
	Kind    Kind   `json:"kind"`
	Pos     int    `json:"pos"`
	End     int    `json:"end"`
	Line    int    `json:"line"`
	Class   string `json:"class,omitempty"`
	Message string `json:"message,omitempty"`
	Side    Side   `json:"side,omitempty"`
}

// Highlight returns a character-range decoration.
func Highlight(start, end, line int, class string) Entry {
	return Entry{Kind: KindHighlight, Pos: start, End: end, Line: line, Class: class}
}

// LineMarker returns a line decoration placed at the line start.
func LineMarker(lineStart, line int, class string) Entry {
	return Entry{Kind: KindLineMarker, Pos: lineStart, End: lineStart, Line: line, Class: class}
}

// Annotation returns a message widget anchored at offset.
func Annotation(anchor, line int, message string, side Side) Entry {
	return Entry{Kind: KindAnnotation, Pos: anchor, End: anchor, Line: line, Class: ClassSuggestion, Message: message, Side: side}
}

func (e Entry) String() string {
	switch e.Kind {
	case KindHighlight:
		return fmt.Sprintf("highlight[%d-%d]", e.Pos, e.End)
	case KindLineMarker:
		return fmt.Sprintf("line[%d@%d]", e.Line, e.Pos)
	case KindAnnotation:
		return fmt.Sprintf("annotation[%d]%q", e.Pos, e.Message)
	}
	return "unknown"
}
