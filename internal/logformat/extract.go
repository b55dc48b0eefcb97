package logformat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Extract applies pattern to every line of record and returns one field map
// per matching line, in line order. A line matches only when the pattern
// matches from its first character; other lines and blank lines are skipped.
// A pattern without named groups yields an empty, non-nil map per match, so
// "matched with no fields" stays distinguishable from "no match".
//
// Groups that did not participate in a match are reported as "".
func Extract(record string, pattern *regexp.Regexp) ([]map[string]string, error) {
	if pattern == nil {
		return nil, fmt.Errorf("%w: nil extract pattern", ErrInvalidInput)
	}

	var out []map[string]string
	for _, line := range Lines(record) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if fields, ok := MatchLine(line, pattern); ok {
			out = append(out, fields)
		}
	}
	return out, nil
}

// MatchLine matches pattern against line from its first character.
func MatchLine(line string, pattern *regexp.Regexp) (map[string]string, bool) {
	loc := pattern.FindStringSubmatchIndex(line)
	// Leftmost-first: if any match starts at 0 it is the one returned.
	if loc == nil || loc[0] != 0 {
		return nil, false
	}

	fields := make(map[string]string)
	for i, name := range pattern.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		if loc[2*i] < 0 {
			fields[name] = ""
			continue
		}
		fields[name] = line[loc[2*i]:loc[2*i+1]]
	}
	return fields, true
}

// Lines splits text at line boundaries: \n, \r\n, lone \r, \v, \f, the
// file, group and record separators (\x1c to \x1e), NEL (U+0085) and the
// Unicode line and paragraph separators. Text ending in a boundary yields a
// trailing empty line.
func Lines(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if !isLineBreak(r) {
			continue
		}
		if r == '\n' && i > 0 && text[i-1] == '\r' {
			continue
		}
		out = append(out, text[start:i])
		start = i + utf8.RuneLen(r)
		if r == '\r' && start < len(text) && text[start] == '\n' {
			start++
		}
	}
	return append(out, text[start:])
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
