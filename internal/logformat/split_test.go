package logformat

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_KeepsBoundaryInRecord(t *testing.T) {
	re := regexp.MustCompile(`\[\d{4}-\d{2}-\d{2}\]`)
	text := "[2024-01-01] first\n  continued\n[2024-01-02] second\n\n[2024-01-03] third\n"

	got, err := Split(text, re)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"[2024-01-01] first\n  continued",
		"[2024-01-02] second",
		"[2024-01-03] third",
	}, got)
}

func TestSplit_PreambleIsOwnRecord(t *testing.T) {
	re := regexp.MustCompile(`START`)

	got, err := Split("  preamble\nSTART a\nSTART b", re)
	require.NoError(t, err)
	assert.Equal(t, []string{"preamble", "START a", "START b"}, got)
}

func TestSplit_NoMatchReturnsWholeText(t *testing.T) {
	got, err := Split("  just one record \n", regexp.MustCompile(`nope`))
	require.NoError(t, err)
	assert.Equal(t, []string{"just one record"}, got)
}

func TestSplit_WhitespaceOnly(t *testing.T) {
	got, err := Split(" \n\t ", regexp.MustCompile(`x`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplit_NilPattern(t *testing.T) {
	_, err := Split("anything", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSplit_SegmentBoundAndLineCoverage(t *testing.T) {
	re := regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z`)
	text := strings.Join([]string{
		"2024-01-01T00:00:00.000Z 1 [ERROR] a",
		"   stack frame one",
		"",
		"2024-01-01T00:00:01.000Z 2 [WARN] b",
		"2024-01-01T00:00:02.000Z 3 [NOTE] c",
		"\ttrailing detail",
	}, "\n")
	n := len(re.FindAllStringIndex(text, -1))

	got, err := Split(text, re)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), n)

	seen := map[string]int{}
	for _, seg := range got {
		for _, line := range Lines(seg) {
			if s := strings.TrimSpace(line); s != "" {
				seen[s]++
			}
		}
	}
	for _, line := range Lines(text) {
		if s := strings.TrimSpace(line); s != "" {
			assert.Equal(t, 1, seen[s], "line %q", s)
		}
	}
}

func TestSplit_BoundaryInsideEarlierMatch(t *testing.T) {
	got, err := Split("a1b22", regexp.MustCompile(`\d+`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "1b", "2", "2"}, got)

	php, ok := DefaultCatalog().Get("php")
	require.True(t, ok)
	got, err = Split("[x [y] PHP Warning: boom", php.Detect)
	require.NoError(t, err)
	assert.Equal(t, []string{"[x", "[y] PHP Warning: boom"}, got)
}

func TestSplit_AnchorsKeepContext(t *testing.T) {
	re := regexp.MustCompile(`(?m)^ab`)

	got, err := Split("abab\nab", re)
	require.NoError(t, err)
	assert.Equal(t, []string{"abab", "ab"}, got)

	got, err = Split("ab-abab", regexp.MustCompile(`\bab`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ab-", "abab"}, got)
}
