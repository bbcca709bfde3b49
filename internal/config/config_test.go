package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"writegood/internal/analysis"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "docs", "guide")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, FileName), path)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	// A config above the temp dir would be picked up; only assert when none exists.
	if _, ok, _ := Find(dir); ok {
		t.Skip("a writegood.toml exists above the temp dir")
	}
	cfg, err := Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 300*time.Millisecond, cfg.LSP.Debounce.Duration)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `
[analyzer]
command = "node"
args = ["lint.js", "--json"]
timeout = "2s"
offsets = "bytes"

[settings]
path = "state/writegood.json"

[check]
include = ["**/*.md"]
jobs = 3
`)

	cfg, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "node", cfg.Analyzer.Command)
	assert.Equal(t, []string{"lint.js", "--json"}, cfg.Analyzer.Args)
	assert.Equal(t, 2*time.Second, cfg.Analyzer.Timeout.Duration)
	assert.Equal(t, filepath.Join(dir, "state", "writegood.json"), cfg.Settings.Path)
	assert.Equal(t, []string{"**/*.md"}, cfg.Check.Include)
	assert.Equal(t, 3, cfg.Check.Jobs)
	// untouched sections keep their defaults
	assert.Equal(t, "hint", cfg.LSP.Severity)
	assert.True(t, cfg.Cache.Enabled)

	opts, err := cfg.AnalyzerOptions()
	require.NoError(t, err)
	assert.Equal(t, analysis.OffsetsBytes, opts.Offsets)
	assert.Equal(t, 2*time.Second, opts.Timeout)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, "[lsp]\ndebounce = \"50ms\"\nwatch = true\n")

	cfg, err := Load(t.TempDir(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.LSP.Debounce.Duration)
	assert.True(t, cfg.LSP.Watch)
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"offsets":  "[analyzer]\noffsets = \"runes\"\n",
		"severity": "[lsp]\nseverity = \"error\"\n",
		"jobs":     "[check]\njobs = -1\n",
		"duration": "[analyzer]\ntimeout = \"soon\"\n",
		"syntax":   "[analyzer\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, content)
			_, err := LoadFile(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestLoadFileWarnsOnUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, "[analyzer]\ncommnd = \"typo\"\n")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	_, err := LoadFile(path, logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unknown config key")
	assert.Contains(t, buf.String(), "analyzer.commnd")
}
