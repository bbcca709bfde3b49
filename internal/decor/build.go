package decor

import "sort"

// Build produces the ordered decoration set for resolved findings.
func Build(resolved []Resolved) []Entry {
	if len(resolved) == 0 {
		return nil
	}
	entries := make([]Entry, 0, len(resolved)*3)
	annotated := make(map[int]struct{})
	for _, r := range resolved {
		entries = append(entries, Highlight(r.Span.Start, r.Span.End, r.Line.Line, ClassHighlight))
		if _, seen := annotated[r.Line.Line]; seen {
			continue
		}
		annotated[r.Line.Line] = struct{}{}
		entries = append(entries,
			LineMarker(r.Line.Start, r.Line.Line, ClassLine),
			Annotation(r.Line.End, r.Line.Line, r.Finding.Reason, SideAfter),
		)
	}
	Sort(entries)
	return entries
}

// Sort orders entries by position, kind rank and end, keeping emission order
// for full ties.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if ei.Pos != ej.Pos {
			return ei.Pos < ej.Pos
		}
		if ei.Kind != ej.Kind {
			return ei.Kind < ej.Kind
		}
		if ei.End != ej.End {
			return ei.End < ej.End
		}
		return ei.Side < ej.Side
	})
}

// Count summarizes a decoration set by kind.
type Count struct {
	Highlights  int
	LineMarkers int
	Annotations int
}

// Tally counts entries by kind.
func Tally(entries []Entry) Count {
	var c Count
	for _, e := range entries {
		switch e.Kind {
		case KindHighlight:
			c.Highlights++
		case KindLineMarker:
			c.LineMarkers++
		case KindAnnotation:
			c.Annotations++
		}
	}
	return c
}
