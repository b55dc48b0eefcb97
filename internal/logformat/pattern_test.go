package logformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslatePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`^(?<ts>\S+) (?<msg>.*)$`, `^(?P<ts>\S+) (?P<msg>.*)$`},
		{`(?P<already>x)`, `(?P<already>x)`},
		{`(?<=x)y`, `(?<=x)y`},
		{`(?<!x)y`, `(?<!x)y`},
		{`no groups`, `no groups`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TranslatePattern(tt.in), tt.in)
	}
}

func TestCompilePattern(t *testing.T) {
	re, err := CompilePattern(`^(?<level>[A-Z]+): (?<message>.*)$`)
	require.NoError(t, err)
	assert.Equal(t, []string{"level", "message"}, GroupNames(re))
}

func TestCompilePattern_Invalid(t *testing.T) {
	for _, p := range []string{
		"",
		"   ",
		`(unclosed`,
		`(?<=lookbehind)x`,
		`(?P<a>x)(?P<a>y)`,
		`(?<a>x)|(?P<a>y)`,
	} {
		_, err := CompilePattern(p)
		assert.ErrorIs(t, err, ErrInvalidPattern, "pattern %q", p)
	}
}
