package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writegood/internal/analysis"
	"writegood/internal/enablement"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var soAnalyzer = analysis.Func(func(_ context.Context, text string, _ analysis.Checks) ([]analysis.Finding, error) {
	if strings.Contains(text, "explode") {
		return nil, errors.New("analyzer exploded")
	}
	var out []analysis.Finding
	for i := 0; ; {
		j := strings.Index(text[i:], "So ")
		if j < 0 {
			return out, nil
		}
		out = append(out, analysis.Finding{StartOffset: i + j, Length: 2, Reason: `"So" adds no meaning`})
		i += j + 3
	}
})

func TestCollectFiltersWithGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "")
	writeFile(t, root, "notes/b.txt", "")
	writeFile(t, root, "notes/c.go", "")
	writeFile(t, root, "node_modules/pkg/readme.md", "")
	writeFile(t, root, ".git/description.md", "")
	extra := writeFile(t, t.TempDir(), "explicit.go", "")

	m, err := NewMatcher(nil, nil)
	require.NoError(t, err)
	files, err := Collect([]string{root, extra, root}, m)
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		if rel, err := filepath.Rel(root, f); err == nil && !strings.HasPrefix(rel, "..") {
			rels = append(rels, filepath.ToSlash(rel))
		}
	}
	assert.Equal(t, []string{"a.md", "notes/b.txt"}, rels)
	assert.Contains(t, files, filepath.Clean(extra))
	assert.Len(t, files, 3)
}

func TestNewMatcherRejectsBadPattern(t *testing.T) {
	_, err := NewMatcher([]string{"[unterminated"}, nil)
	assert.Error(t, err)
}

func TestMatcherCustomPatterns(t *testing.T) {
	m, err := NewMatcher([]string{"docs/**/*.md"}, []string{"docs/drafts/**"})
	require.NoError(t, err)
	assert.True(t, m.Match("docs/guide/intro.md"))
	assert.False(t, m.Match("docs/drafts/wip.md"))
	assert.False(t, m.Match("README.md"))
	assert.True(t, m.Excluded("docs/drafts", true))
}

func TestRunAnalyzesInInputOrder(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.md", "So it begins.\nSo it ends.")
	b := writeFile(t, root, "b.md", "Nothing to see.")
	c := writeFile(t, root, "c.md", "explode")
	missing := filepath.Join(root, "missing.md")

	var mu sync.Mutex
	var events []Event
	res, err := Run(context.Background(), &Request{
		Files:    []string{a, b, c, missing},
		Jobs:     2,
		Analyzer: soAnalyzer,
		Progress: SinkFunc(func(e Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}),
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 4)

	assert.Equal(t, a, res.Files[0].Path)
	assert.Len(t, res.Files[0].Findings, 2)
	assert.Len(t, res.Files[0].Entries, 6)
	assert.Empty(t, res.Files[1].Findings)
	assert.ErrorContains(t, res.Files[2].Err, "analyzer exploded")
	assert.ErrorIs(t, res.Files[3].Err, os.ErrNotExist)
	assert.Equal(t, 2, res.FindingCount())
	assert.Error(t, res.Errors())

	final := map[string]Status{}
	for _, e := range events {
		final[e.File] = e.Status
	}
	assert.Equal(t, StatusDone, final[a])
	assert.Equal(t, StatusError, final[c])
	assert.Equal(t, StatusError, final[missing])
}

func TestRunHonorsEnablement(t *testing.T) {
	root := t.TempDir()
	on := writeFile(t, root, "on.md", "So yes.")
	off := writeFile(t, root, "off.md", "So no.")
	store := enablement.NewStore(true, nil)
	store.SetEnabled(enablement.PathIdentity(off), false)

	req := &Request{
		Files:      []string{on, off},
		Analyzer:   soAnalyzer,
		Enablement: store,
		Identity:   enablement.PathIdentity,
	}
	res, err := Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Files[0].Skipped)
	assert.True(t, res.Files[1].Skipped)
	assert.Equal(t, 1, res.FindingCount())

	req.All = true
	res, err = Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FindingCount())
}

func TestRunCanceled(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a.md", "So.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, &Request{Files: []string{a}, Analyzer: soAnalyzer})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRequiresAnalyzer(t *testing.T) {
	_, err := Run(context.Background(), &Request{})
	assert.Error(t, err)
}
