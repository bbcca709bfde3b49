package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"writegood/internal/batch"
	"writegood/internal/decor"
	"writegood/internal/source"
)

type palette struct {
	path       *color.Color
	reason     *color.Color
	gutter     *color.Color
	caret      *color.Color
	annotation *color.Color
	failure    *color.Color
	muted      *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:       color.New(color.Bold),
		reason:     color.New(color.FgYellow),
		gutter:     color.New(color.FgBlue, color.Bold),
		caret:      color.New(color.FgRed, color.Bold),
		annotation: color.New(color.FgCyan),
		failure:    color.New(color.FgRed),
		muted:      color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.path, p.reason, p.gutter, p.caret, p.annotation, p.failure, p.muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty prints every flagged line once, in decoration order:
//
//	draft.md:1:13: "was attended" may be passive voice
//	  1 | The meeting was attended by John.
//	    |             ^^^^^^^^^^^^ "was attended" may be passive voice
//
// Highlights become carets under the line and the line's annotation trails
// the caret row.
func Pretty(w io.Writer, results []batch.FileResult, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for _, res := range results {
		path := opts.displayPath(res.Path)
		switch {
		case res.Err != nil:
			fmt.Fprintf(&b, "%s: %s %v\n", p.path.Sprint(path), p.failure.Sprint("error:"), res.Err)
			continue
		case res.Skipped:
			if opts.ShowSkipped {
				fmt.Fprintf(&b, "%s: %s\n", p.path.Sprint(path), p.muted.Sprint("checks disabled"))
			}
			continue
		case len(res.Findings) == 0:
			continue
		}
		for _, f := range res.Findings {
			lc := res.File.LineCol(f.Span.Start)
			fmt.Fprintf(&b, "%s %s\n", p.path.Sprintf("%s:%d:%d:", path, lc.Line, lc.Col), p.reason.Sprint(f.Finding.Reason))
		}
		writeLines(&b, res.File, res.Entries, p)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeLines(b *strings.Builder, file *source.File, entries []decor.Entry, p palette) {
	gutterWidth := len(fmt.Sprint(file.LineCount()))
	var (
		line     = -1
		lineSpan source.LineSpan
		carets   []rune
		note     string
	)
	flush := func() {
		if line < 0 {
			return
		}
		text := displayText(file.LineText(line))
		fmt.Fprintf(b, "%s %s\n", p.gutter.Sprintf("%*d |", gutterWidth+2, line+1), text)
		row := strings.TrimRight(string(carets), " ")
		fmt.Fprintf(b, "%s %s", p.gutter.Sprintf("%*s |", gutterWidth+2, ""), p.caret.Sprint(row))
		if note != "" {
			fmt.Fprintf(b, " %s", p.annotation.Sprint(note))
		}
		b.WriteString("\n")
	}
	for _, e := range entries {
		switch e.Kind {
		case decor.KindLineMarker:
			flush()
			line = e.Line
			lineSpan = file.Line(e.Line)
			carets = carets[:0]
			note = ""
		case decor.KindHighlight:
			if e.Line != line {
				continue
			}
			carets = markCarets(carets, file.Content, lineSpan, e.Pos, e.End)
		case decor.KindAnnotation:
			if e.Line == line {
				note = e.Message
			}
		}
	}
	flush()
}

// markCarets extends row so that the columns under [start,end) carry '^'.
// Columns are display cells, so wide runes take two carets.
func markCarets(row []rune, content string, ls source.LineSpan, start, end int) []rune {
	end = min(end, ls.End)
	if start < ls.Start || start > end {
		return row
	}
	from := runewidth.StringWidth(displayText(content[ls.Start:start]))
	width := max(runewidth.StringWidth(displayText(content[start:end])), 1)
	for len(row) < from+width {
		row = append(row, ' ')
	}
	for i := from; i < from+width; i++ {
		row[i] = '^'
	}
	return row
}

// displayText renders tabs as single spaces so caret columns line up.
func displayText(s string) string {
	return strings.ReplaceAll(s, "\t", " ")
}
