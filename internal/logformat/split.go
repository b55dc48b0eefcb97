package logformat

import (
	"fmt"
	"regexp"
	"strings"
)

// Split partitions text into records. A new record starts at every position
// where pattern matches, including positions inside an earlier match, and
// the matched text stays at the head of that record. Content before the
// first match forms its own record. Records are trimmed and empty ones
// dropped.
func Split(text string, pattern *regexp.Regexp) ([]string, error) {
	if pattern == nil {
		return nil, ErrUnsupportedFormat
	}

	first := pattern.FindStringIndex(text)
	if first == nil {
		return appendTrimmed(nil, text), nil
	}

	// One leading rune keeps the preceding character in view, so ^, \b and
	// friends see the same context they would in the full text.
	next, err := regexp.Compile(`(?s:.)(` + pattern.String() + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	records := appendTrimmed(nil, text[:first[0]])
	start := first[0]
	for {
		loc := next.FindStringSubmatchIndex(text[start:])
		if loc == nil {
			break
		}
		boundary := start + loc[2]
		records = appendTrimmed(records, text[start:boundary])
		start = boundary
	}
	records = appendTrimmed(records, text[start:])

	return records, nil
}

func appendTrimmed(dst []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		dst = append(dst, s)
	}
	return dst
}
