package analysis

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultChecks(t *testing.T) {
	checks := DefaultChecks()
	require.Len(t, checks, len(CheckNames))
	for _, name := range CheckNames {
		assert.Equal(t, name != CheckEPrime, checks[name], name)
	}
	assert.NotContains(t, checks.Enabled(), CheckEPrime)
	assert.True(t, IsKnownCheck(CheckThereIs))
	assert.False(t, IsKnownCheck("lexicalIllusion"))
}

func TestDecodeSuggestionsConvertsUTF16Offsets(t *testing.T) {
	text := "🙂 So the cake was eaten."
	raw := []byte(`[{"index":3,"offset":2,"reason":"\"So\" adds no meaning"},{"index":15,"offset":9,"reason":"\"was eaten\" may be passive voice"}]`)

	findings, err := decodeSuggestions(raw, text, OffsetsUTF16)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, "So", text[findings[0].StartOffset:findings[0].End()])
	assert.Equal(t, "was eaten", text[findings[1].StartOffset:findings[1].End()])
}

func TestDecodeSuggestionsSortsAndSkipsInvalid(t *testing.T) {
	text := "abcdefghij"
	raw := []byte(`[{"index":5,"offset":2,"reason":"b"},{"index":-1,"offset":2,"reason":"neg"},{"index":1,"offset":0,"reason":"empty"},{"index":1,"offset":2,"reason":"a"}]`)

	findings, err := decodeSuggestions(raw, text, OffsetsBytes)
	require.NoError(t, err)
	require.Equal(t, []Finding{
		{StartOffset: 1, Length: 2, Reason: "a"},
		{StartOffset: 5, Length: 2, Reason: "b"},
	}, findings)
}

func TestDecodeSuggestionsMalformed(t *testing.T) {
	_, err := decodeSuggestions([]byte(`{"oops":true}`), "text", OffsetsUTF16)
	require.ErrorIs(t, err, ErrAnalyzerFailed)
}

func TestCommandAnalyzer(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	a, err := NewCommandAnalyzer(CommandOptions{
		Command: "sh",
		Args:    []string{"-c", `cat >/dev/null; echo '[{"index":4,"offset":7,"reason":"passive"}]'`},
	})
	require.NoError(t, err)

	findings, err := a.Analyze(context.Background(), "The meeting was held.", DefaultChecks())
	require.NoError(t, err)
	require.Equal(t, []Finding{{StartOffset: 4, Length: 7, Reason: "passive"}}, findings)
}

func TestCommandAnalyzerFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	a, err := NewCommandAnalyzer(CommandOptions{
		Command: "sh",
		Args:    []string{"-c", `echo boom >&2; exit 3`},
	})
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), "text", DefaultChecks())
	require.ErrorIs(t, err, ErrAnalyzerFailed)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewCommandAnalyzerRequiresCommand(t *testing.T) {
	_, err := NewCommandAnalyzer(CommandOptions{})
	require.Error(t, err)
}

func TestParseOffsetUnits(t *testing.T) {
	u, err := ParseOffsetUnits("")
	require.NoError(t, err)
	assert.Equal(t, OffsetsUTF16, u)
	u, err = ParseOffsetUnits("bytes")
	require.NoError(t, err)
	assert.Equal(t, OffsetsBytes, u)
	_, err = ParseOffsetUnits("runes")
	require.Error(t, err)
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCache("writegood", t.TempDir())
	require.NoError(t, err)

	key := KeyFor("some text", DefaultChecks())
	_, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.False(t, ok)

	want := []Finding{{StartOffset: 0, Length: 4, Reason: "weasel"}}
	require.NoError(t, cache.Put(key, want))

	got, ok, err := cache.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, cache.DropAll())
	_, ok, err = cache.Get(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyDependsOnChecks(t *testing.T) {
	checks := DefaultChecks()
	other := checks.Clone()
	other[CheckEPrime] = true
	assert.NotEqual(t, KeyFor("x", checks), KeyFor("x", other))
	assert.Equal(t, KeyFor("x", checks), KeyFor("x", checks.Clone()))
}

func TestCachedAnalyzer(t *testing.T) {
	cache, err := OpenDiskCache("writegood", t.TempDir())
	require.NoError(t, err)

	calls := 0
	next := Func(func(ctx context.Context, text string, checks Checks) ([]Finding, error) {
		calls++
		return []Finding{{StartOffset: 0, Length: 1, Reason: "r"}}, nil
	})
	a := Cached(next, cache, nil)

	for range 3 {
		findings, err := a.Analyze(context.Background(), "abc", DefaultChecks())
		require.NoError(t, err)
		require.Len(t, findings, 1)
	}
	assert.Equal(t, 1, calls)
}

func TestCachedAnalyzerDoesNotCacheErrors(t *testing.T) {
	cache, err := OpenDiskCache("writegood", t.TempDir())
	require.NoError(t, err)

	calls := 0
	boom := errors.New("boom")
	next := Func(func(ctx context.Context, text string, checks Checks) ([]Finding, error) {
		calls++
		return nil, boom
	})
	a := Cached(next, cache, nil)
	for range 2 {
		_, err := a.Analyze(context.Background(), "abc", DefaultChecks())
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls)
}
