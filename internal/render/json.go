package render

import (
	"encoding/json"
	"io"

	"writegood/internal/batch"
	"writegood/internal/decor"
)

// LocationJSON is a finding position; lines and columns are 1-based.
type LocationJSON struct {
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// FindingJSON is one finding.
type FindingJSON struct {
	Reason   string       `json:"reason"`
	Location LocationJSON `json:"location"`
}

// FileJSON is the report for one file.
type FileJSON struct {
	Path        string        `json:"path"`
	Skipped     bool          `json:"skipped,omitempty"`
	Error       string        `json:"error,omitempty"`
	Findings    []FindingJSON `json:"findings"`
	Decorations []decor.Entry `json:"decorations,omitempty"`
}

// Output is the root JSON document.
type Output struct {
	Files []FileJSON `json:"files"`
	Count int        `json:"count"`
}

// JSON writes an indented Output document.
func JSON(w io.Writer, results []batch.FileResult, opts Options) error {
	out := Output{Files: make([]FileJSON, 0, len(results))}
	for _, res := range results {
		if res.Skipped && !opts.ShowSkipped {
			continue
		}
		fj := FileJSON{
			Path:     opts.displayPath(res.Path),
			Skipped:  res.Skipped,
			Findings: make([]FindingJSON, 0, len(res.Findings)),
		}
		if res.Err != nil {
			fj.Error = res.Err.Error()
		}
		for _, f := range res.Findings {
			start := res.File.LineCol(f.Span.Start)
			end := res.File.LineCol(f.Span.End)
			fj.Findings = append(fj.Findings, FindingJSON{
				Reason: f.Finding.Reason,
				Location: LocationJSON{
					StartByte: f.Span.Start,
					EndByte:   f.Span.End,
					StartLine: start.Line,
					StartCol:  start.Col,
					EndLine:   end.Line,
					EndCol:    end.Col,
				},
			})
		}
		if opts.IncludeDecorations {
			fj.Decorations = res.Entries
		}
		out.Count += len(res.Findings)
		out.Files = append(out.Files, fj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
