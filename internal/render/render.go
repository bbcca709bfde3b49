package render

import (
	"fmt"
	"io"

	"writegood/internal/batch"
)

// Write prints results in the requested format.
func Write(w io.Writer, format Format, results []batch.FileResult, opts Options) error {
	switch format {
	case FormatPretty, "":
		return Pretty(w, results, opts)
	case FormatShort:
		return Short(w, results, opts)
	case FormatJSON:
		return JSON(w, results, opts)
	}
	return fmt.Errorf("unknown format %q", format)
}

// Short prints one line per finding: path:line:col: reason.
func Short(w io.Writer, results []batch.FileResult, opts Options) error {
	for _, res := range results {
		path := opts.displayPath(res.Path)
		if res.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: error: %v\n", path, res.Err); err != nil {
				return err
			}
			continue
		}
		if res.Skipped && opts.ShowSkipped {
			if _, err := fmt.Fprintf(w, "%s: skipped\n", path); err != nil {
				return err
			}
			continue
		}
		for _, f := range res.Findings {
			lc := res.File.LineCol(f.Span.Start)
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s\n", path, lc.Line, lc.Col, f.Finding.Reason); err != nil {
				return err
			}
		}
	}
	return nil
}
