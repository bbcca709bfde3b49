package decor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writegood/internal/analysis"
	"writegood/internal/source"
)

func findingFor(t *testing.T, text, phrase, reason string) analysis.Finding {
	t.Helper()
	idx := strings.Index(text, phrase)
	require.GreaterOrEqual(t, idx, 0, "phrase %q not found", phrase)
	return analysis.Finding{StartOffset: idx, Length: len(phrase), Reason: reason}
}

func decorate(text string, findings []analysis.Finding) []Entry {
	return Build(Normalize(source.NewFile("doc.md", text), findings))
}

func TestNoFindingsNoDecorations(t *testing.T) {
	assert.Empty(t, decorate("Clean prose.\nMore clean prose.", nil))
}

func TestDistinctLinesGetOneOfEach(t *testing.T) {
	text := "So it begins.\nThere is a cat.\nIt was eaten."
	findings := []analysis.Finding{
		findingFor(t, text, "So", `"So" adds no meaning`),
		findingFor(t, text, "There is", `"There is" is unnecessary verbiage`),
		findingFor(t, text, "was eaten", `"was eaten" may be passive voice`),
	}
	entries := decorate(text, findings)

	c := Tally(entries)
	assert.Equal(t, Count{Highlights: 3, LineMarkers: 3, Annotations: 3}, c)

	lines := make(map[int]Count)
	for _, e := range entries {
		cnt := lines[e.Line]
		switch e.Kind {
		case KindHighlight:
			cnt.Highlights++
		case KindLineMarker:
			cnt.LineMarkers++
		case KindAnnotation:
			cnt.Annotations++
		}
		lines[e.Line] = cnt
	}
	for line := range 3 {
		assert.Equal(t, Count{Highlights: 1, LineMarkers: 1, Annotations: 1}, lines[line], "line %d", line)
	}
}

func TestSharedLineCollapsesAnnotations(t *testing.T) {
	text := "It was really very quickly eaten.\nNext line."
	findings := []analysis.Finding{
		findingFor(t, text, "really", `"really" can weaken meaning`),
		findingFor(t, text, "very", `"very" is a weasel word`),
		findingFor(t, text, "quickly", `"quickly" can weaken meaning`),
	}
	entries := decorate(text, findings)

	c := Tally(entries)
	assert.Equal(t, 3, c.Highlights)
	assert.Equal(t, 1, c.LineMarkers)
	require.Equal(t, 1, c.Annotations)

	for _, e := range entries {
		if e.Kind == KindAnnotation {
			assert.Equal(t, `"really" can weaken meaning`, e.Message)
			assert.Equal(t, strings.Index(text, "\n"), e.Pos)
			assert.Equal(t, SideAfter, e.Side)
		}
	}
}

func TestFirstReasonWinsInInputOrder(t *testing.T) {
	text := "alpha beta"
	// analyzer order is authoritative, even if not sorted by offset
	findings := []analysis.Finding{
		{StartOffset: 6, Length: 4, Reason: "second span first"},
		{StartOffset: 0, Length: 5, Reason: "first span second"},
	}
	entries := decorate(text, findings)
	var messages []string
	for _, e := range entries {
		if e.Kind == KindAnnotation {
			messages = append(messages, e.Message)
		}
	}
	assert.Equal(t, []string{"second span first"}, messages)
}

func TestPassiveVoiceExample(t *testing.T) {
	text := "The meeting was attended by John."
	passive := analysis.Func(func(_ context.Context, text string, checks analysis.Checks) ([]analysis.Finding, error) {
		if !checks[analysis.CheckPassive] {
			return nil, nil
		}
		idx := strings.Index(text, "was attended")
		return []analysis.Finding{{StartOffset: idx, Length: len("was attended"), Reason: `"was attended" may be passive voice`}}, nil
	})
	checks := analysis.Checks{analysis.CheckPassive: true}

	resolved, err := Analyze(context.Background(), source.NewFile("doc.md", text), passive, checks)
	require.NoError(t, err)
	entries := Build(resolved)

	require.Equal(t, []Entry{
		LineMarker(0, 0, ClassLine),
		Highlight(12, 24, 0, ClassHighlight),
		Annotation(len(text), 0, `"was attended" may be passive voice`, SideAfter),
	}, entries)
	assert.Equal(t, "was attended", text[entries[1].Pos:entries[1].End])
}

func TestBuildIsDeterministic(t *testing.T) {
	text := "So there is very much to say.\n\nIt was said."
	findings := []analysis.Finding{
		findingFor(t, text, "So", "so"),
		findingFor(t, text, "there is", "there is"),
		findingFor(t, text, "very", "weasel"),
		findingFor(t, text, "very much", "wordy"),
		findingFor(t, text, "was said", "passive"),
	}
	first := decorate(text, findings)
	for range 10 {
		assert.Equal(t, first, decorate(text, findings))
	}
}

func TestSortTieBreak(t *testing.T) {
	// all four entries sit at offset 5
	entries := []Entry{
		Annotation(5, 0, "a", SideAfter),
		Highlight(5, 9, 1, ClassHighlight),
		Highlight(5, 7, 1, ClassHighlight),
		LineMarker(5, 1, ClassLine),
	}
	Sort(entries)
	assert.Equal(t, []Kind{KindLineMarker, KindHighlight, KindHighlight, KindAnnotation}, []Kind{
		entries[0].Kind, entries[1].Kind, entries[2].Kind, entries[3].Kind,
	})
	assert.Equal(t, 7, entries[1].End)
	assert.Equal(t, 9, entries[2].End)
}

func TestEntriesSortedByPosition(t *testing.T) {
	text := "x\n\ny"
	findings := []analysis.Finding{
		{StartOffset: 0, Length: 1, Reason: "x"},
		{StartOffset: 3, Length: 1, Reason: "y"},
	}
	entries := decorate(text, findings)
	positions := make([]int, 0, len(entries))
	for _, e := range entries {
		positions = append(positions, e.Pos)
	}
	assert.IsNonDecreasing(t, positions)
}

func TestNormalizeDropsInvalidAndClamps(t *testing.T) {
	file := source.NewFile("doc.md", "short")
	resolved := Normalize(file, []analysis.Finding{
		{StartOffset: -1, Length: 2, Reason: "neg"},
		{StartOffset: 1, Length: 0, Reason: "empty"},
		{StartOffset: 9, Length: 1, Reason: "beyond"},
		{StartOffset: 5, Length: 2, Reason: "at end"},
		{StartOffset: 3, Length: 10, Reason: "clamped"},
	})
	require.Len(t, resolved, 1)
	assert.Equal(t, source.Span{Start: 3, End: 5}, resolved[0].Span)
	assert.Equal(t, source.LineSpan{Start: 0, End: 5, Line: 0}, resolved[0].Line)
}

func TestFindingAtEndOfTextProducesNothing(t *testing.T) {
	entries := decorate("abc", []analysis.Finding{{StartOffset: 3, Length: 2, Reason: "nothing left"}})
	assert.Empty(t, entries)
}

func TestCRLFAnnotationAnchorsBeforeLineBreak(t *testing.T) {
	text := "a very day\r\nnext"
	entries := decorate(text, []analysis.Finding{findingFor(t, text, "very", `"very" is a weasel word`)})

	var annotations []Entry
	for _, e := range entries {
		if e.Kind == KindAnnotation {
			annotations = append(annotations, e)
		}
	}
	require.Len(t, annotations, 1)
	assert.Equal(t, strings.Index(text, "\r"), annotations[0].Pos)
	assert.Equal(t, 0, annotations[0].Line)
}

func TestAnalyzePropagatesFailure(t *testing.T) {
	boom := errors.New("malformed input")
	failing := analysis.Func(func(context.Context, string, analysis.Checks) ([]analysis.Finding, error) {
		return nil, boom
	})
	_, err := Analyze(context.Background(), source.NewFile("doc.md", "text"), failing, analysis.DefaultChecks())
	require.ErrorIs(t, err, boom)
}
