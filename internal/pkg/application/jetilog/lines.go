package jetilog

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	metadataMarker   string = "000000000"
	fieldSeparator   string = ";"
	commentPrefix    string = "#"
	minMetadataField int    = 4
	minEntryFields   int    = 6
	sampleStride     int    = 4
)

// splitLines breaks text on \r\n and on every single line boundary character:
// \n, \r, \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029. Line numbers start at 1.
func splitLines(text string) []string {
	lines := []string{}

	start := 0
	for i, r := range text {
		if i < start {
			continue
		}
		if !isLineBoundary(r) {
			continue
		}

		lines = append(lines, text[start:i])
		start = i + utf8.RuneLen(r)

		if r == '\r' && start < len(text) && text[start] == '\n' {
			start++
		}
	}

	if start < len(text) {
		lines = append(lines, text[start:])
	}

	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// isComment reports comment lines and blank lines, neither carries a record.
func isComment(line string) bool {
	return strings.HasPrefix(line, commentPrefix) || strings.TrimSpace(line) == ""
}

func parseInt(field string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(field))
}

func parseInt64(field string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(field), 10, 64)
}
