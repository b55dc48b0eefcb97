package logformat

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MySQLRoundTrip(t *testing.T) {
	spec, ok := DefaultCatalog().Get("mysql")
	require.True(t, ok)

	got, err := Extract(mysqlLine, spec.Extract)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{
		"timestamp": "2024-01-01T00:00:00.000Z",
		"thread_id": "42",
		"level":     "ERROR",
		"code":      "MY-1234",
		"source":    "Repl",
		"message":   "disk full",
	}, got[0])
}

func TestExtract_BuiltinFields(t *testing.T) {
	tests := []struct {
		format string
		line   string
		want   map[string]string
	}{
		{
			format: "laravel",
			line:   laravelLine,
			want: map[string]string{
				"timestamp":   "2024-01-01 10:00:00",
				"environment": "production",
				"level":       "ERROR",
				"message":     "Something failed",
				"context":     `{"exception":"RuntimeException"}`,
			},
		},
		{
			format: "asterisk",
			line:   asteriskLine,
			want: map[string]string{
				"timestamp": "2024-01-01 10:00:00",
				"level":     "ERROR",
				"thread_id": "1234",
				"call_id":   "C-00000001",
				"message":   "chan_sip.c:1234 handle_request: bad request",
			},
		},
		{
			format: "php",
			line:   phpLine,
			want: map[string]string{
				"timestamp": "01-Jan-2024 10:00:00 UTC",
				"level":     "Fatal error",
				"message":   "Uncaught Error: Call to undefined function foo()",
				"source":    "/var/www/index.php",
				"line":      "12",
			},
		},
		{
			format: "syslog",
			line:   syslogLine,
			want: map[string]string{
				"timestamp": "Jan  1 10:00:00",
				"host":      "web01",
				"source":    "sshd",
				"pid":       "123",
				"message":   "Failed password for root",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			spec, ok := DefaultCatalog().Get(tt.format)
			require.True(t, ok)

			got, err := Extract(tt.line, spec.Extract)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestExtract_LineAnchored(t *testing.T) {
	re := regexp.MustCompile(`(?P<level>ERROR): (?P<message>.*)`)
	text := "ERROR: one\n  ERROR: indented\nprefix ERROR: two\r\nERROR: three\r\n\n"

	got, err := Extract(text, re)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"level": "ERROR", "message": "one"},
		{"level": "ERROR", "message": "three"},
	}, got)
}

func TestExtract_NoNamedGroupsYieldsEmptyMap(t *testing.T) {
	got, err := Extract("abc\nxyz\nabd", regexp.MustCompile(`ab`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.NotNil(t, m)
		assert.Empty(t, m)
	}
}

func TestExtract_NoMatch(t *testing.T) {
	got, err := Extract("nothing here", regexp.MustCompile(`^(?P<x>\d+)$`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtract_OptionalGroupIsEmptyString(t *testing.T) {
	spec, ok := DefaultCatalog().Get("asterisk")
	require.True(t, ok)

	got, err := Extract(`[2024-01-01 10:00:00] NOTICE: Registered SIP 'alice'`, spec.Extract)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0]["thread_id"])
	assert.Equal(t, "", got[0]["call_id"])
	assert.Equal(t, "Registered SIP 'alice'", got[0]["message"])
}

func TestExtract_NilPattern(t *testing.T) {
	_, err := Extract("x", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", ""}, Lines("a\r\nb\rc\n"))
	assert.Equal(t, []string{"one"}, Lines("one"))
	assert.Equal(t, []string{"a", "", "b"}, Lines("a\r\rb"))
}

func TestLines_UnicodeBoundaries(t *testing.T) {
	text := "v\vf\ffs\x1cgs\x1drs\x1enel\u0085ls\u2028ps\u2029end"
	assert.Equal(t, []string{"v", "f", "fs", "gs", "rs", "nel", "ls", "ps", "end"}, Lines(text))
}

func TestExtract_FormFeedSeparatesLines(t *testing.T) {
	re := regexp.MustCompile(`^(?P<n>\d+)$`)

	got, err := Extract("1\f2\u20283", re)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[2]["n"])
}
