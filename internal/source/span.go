package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) inside a single snapshot.
type Span struct {
	Start int
	End   int
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Clamp limits the span to [0, n] keeping Start <= End.
func (s Span) Clamp(n int) Span {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.Start > n {
		s.Start = n
	}
	if s.End > n {
		s.End = n
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}
