package ingest

import (
	"regexp"
	"strings"
)

var brTag = regexp.MustCompile(`(?i)<br\s*/?>`)

// NormalizeText prepares long-form cell content for display: HTML line
// breaks become newlines, all newline conventions collapse to \n, and
// surrounding whitespace is dropped. Idempotent.
func NormalizeText(s string) string {
	s = brTag.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// NormalizeCell trims a short categorical cell value. Unlike
// NormalizeText it leaves line-break markup alone.
func NormalizeCell(s string) string {
	return strings.TrimSpace(s)
}

// parseLeadingInt parses a cell the way spreadsheet authors expect:
// leading whitespace and an optional sign, then as many digits as are
// there. "30 sec" is 30, "2.5" is 2, "abc" is nothing.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	i := 0
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		i++
	}
	n := 0
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
