package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writegood/internal/batch"
)

func TestProgressModelTracksEvents(t *testing.T) {
	files := []string{"a.md", "b.md"}
	m := NewProgressModel("checking", files, nil).(*progressModel)

	m.applyEvent(batch.Event{File: "a.md", Stage: batch.StageAnalyze, Status: batch.StatusWorking})
	assert.Equal(t, "analyzing", m.items[0].status)

	m.applyEvent(batch.Event{File: "a.md", Stage: batch.StageAnalyze, Status: batch.StatusDone, Findings: 3})
	m.applyEvent(batch.Event{File: "b.md", Stage: batch.StageLoad, Status: batch.StatusSkipped})
	m.applyEvent(batch.Event{File: "b.md", Stage: batch.StageLoad, Status: batch.StatusSkipped})
	assert.Equal(t, 3, m.findings)
	assert.True(t, m.items[1].finished)

	view := m.View()
	assert.Contains(t, view, "2/2 files, 3 findings")
	assert.Contains(t, view, "skipped")
}

func TestProgressModelDoneOnClosedChannel(t *testing.T) {
	events := make(chan batch.Event)
	close(events)
	m := NewProgressModel("checking", []string{"a.md"}, events).(*progressModel)
	msg := m.listenForEvent()()
	_, ok := msg.(doneMsg)
	require.True(t, ok)
	assert.True(t, Interrupted(m))
	m.Update(msg)
	assert.False(t, Interrupted(m))
	assert.True(t, strings.HasPrefix(stripANSI(m.View()), "done: "))
}

func TestVisibleKeepsRecentRows(t *testing.T) {
	files := make([]string, maxListed+5)
	for i := range files {
		files[i] = strings.Repeat("x", i+1) + ".md"
	}
	m := NewProgressModel("checking", files, nil).(*progressModel)
	for _, f := range files {
		m.applyEvent(batch.Event{File: f, Stage: batch.StageLoad, Status: batch.StatusWorking})
	}
	rows := m.visible()
	require.Len(t, rows, maxListed)
	assert.Equal(t, len(files)-1, rows[len(rows)-1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
