package logformat

import (
	"fmt"
	"regexp"
	"strings"
)

// jsNamedGroup matches the opening of a JavaScript style named group. It does
// not match lookbehind openers such as (?<= or (?<!.
var jsNamedGroup = regexp.MustCompile(`\(\?<([a-zA-Z_][a-zA-Z0-9_]*)>`)

// TranslatePattern rewrites JavaScript style named groups (?<name>...) into
// the (?P<name>...) form. Everything else is left untouched.
func TranslatePattern(pattern string) string {
	return jsNamedGroup.ReplaceAllString(pattern, `(?P<${1}>`)
}

// CompilePattern translates and compiles pattern. Compilation failures and
// duplicated group names are reported as ErrInvalidPattern.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	re, err := regexp.Compile(TranslatePattern(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	if err := checkGroupNames(re); err != nil {
		return nil, err
	}

	return re, nil
}

// GroupNames returns the named capture groups of re in declaration order.
func GroupNames(re *regexp.Regexp) []string {
	var names []string
	for _, name := range re.SubexpNames() {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func checkGroupNames(re *regexp.Regexp) error {
	seen := make(map[string]bool)
	for _, name := range GroupNames(re) {
		if seen[name] {
			return fmt.Errorf("%w: duplicate group name %q", ErrInvalidPattern, name)
		}
		seen[name] = true
	}
	return nil
}
