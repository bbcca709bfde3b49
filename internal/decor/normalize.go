package decor

import (
	"context"
	"fmt"

	"writegood/internal/analysis"
	"writegood/internal/source"
)

// Resolved is a finding mapped onto a document snapshot.
type Resolved struct {
	Finding analysis.Finding
	Span    source.Span
	Line    source.LineSpan
}

// Normalize maps findings onto file, preserving analyzer order. Findings with
// a negative start, a non-positive length or a start at or past the end of
// the text are dropped; an end past the text is clamped.
func Normalize(file *source.File, findings []analysis.Finding) []Resolved {
	if file == nil || len(findings) == 0 {
		return nil
	}
	out := make([]Resolved, 0, len(findings))
	n := file.Len()
	for _, f := range findings {
		if f.StartOffset < 0 || f.Length <= 0 || f.StartOffset >= n {
			continue
		}
		span := source.Span{Start: f.StartOffset, End: f.End()}.Clamp(n)
		out = append(out, Resolved{
			Finding: f,
			Span:    span,
			Line:    file.LineAt(span.Start),
		})
	}
	return out
}

// Analyze runs a over the snapshot text and normalizes the result. Analyzer
// errors are returned unchanged apart from wrapping; callers decide how to
// degrade.
func Analyze(ctx context.Context, file *source.File, a analysis.Analyzer, checks analysis.Checks) ([]Resolved, error) {
	findings, err := a.Analyze(ctx, file.Content, checks)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", file.Path, err)
	}
	return Normalize(file, findings), nil
}
