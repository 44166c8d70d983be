package ingest

import "strings"

// Row is one spreadsheet row, keyed by the column headers exactly as the
// author wrote them.
type Row map[string]string

// Spreadsheet authors spell headers inconsistently, so every logical
// field matches a fixed set of aliases instead of one exact header.
var (
	questionAliases = []string{"שאלה", "שאלות", "Question"}

	correctAnswerAliases = []string{
		"מס' תשובה נכונה",
		"מס׳ תשובה נכונה", // Hebrew geresh
		"מספר תשובה נכונה",
		"מספר התשובה הנכונה",
		"תשובה נכונה",
		"Correct Answer",
		"correctAnswer",
	}

	timeLimitAliases = []string{"זמן מענה", "זמן", "טיימר", "Time Limit", "Timer", "timeLimit"}

	pointsAliases = []string{"ניקוד", "נקודות", "Points", "points"}

	answerAliases = [6][]string{
		{"תשובה 1", "Answer 1"},
		{"תשובה 2", "Answer 2"},
		{"תשובה 3", "Answer 3"},
		{"תשובה 4", "Answer 4"},
		{"תשובה 5", "Answer 5"},
		{"תשובה 6", "Answer 6"},
	}

	// Marker keywords in the correct-answer cell. Matched
	// case-insensitively so "Text" and "TEXT" both work.
	textOnlyKeywords = []string{"טקסט", "text"}
	surveyKeywords   = []string{"סקר", "survey"}
)

// hasColumn reports whether any alias is a header present in the row.
func hasColumn(row Row, aliases []string) bool {
	for _, alias := range aliases {
		if _, ok := row[alias]; ok {
			return true
		}
	}
	return false
}

// cellValue returns the trimmed value under the first matching alias, or
// "" when no alias is a header of the row.
func cellValue(row Row, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := row[alias]; ok {
			return NormalizeCell(v)
		}
	}
	return ""
}

// matchesKeyword reports whether a marker cell equals one of the
// keywords, ignoring case.
func matchesKeyword(cell string, keywords []string) bool {
	for _, kw := range keywords {
		if cell == kw || strings.EqualFold(cell, kw) {
			return true
		}
	}
	return false
}
