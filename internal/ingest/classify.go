package ingest

import (
	"fmt"

	"github.com/27180781/trivia-master-offline/internal/game"
)

// headerRowOffset converts a 1-based data row position into the row
// number the author sees in their spreadsheet (row 1 is the header).
const headerRowOffset = 1

const (
	defaultTimeLimit  = 30
	textOnlyTimeLimit = 0
	maxAnswers        = 6
	minAnswers        = 2
)

// RowError is one rejected row. Row is the spreadsheet row number; 0
// means the problem applies to the whole file.
type RowError struct {
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Row == 0 {
		return e.Message
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// classifyRow turns one data row at the given 1-based position into a
// validated question. Rejections come back as a *RowError, never as a
// panic or batch abort.
func classifyRow(row Row, position int) (game.Question, *RowError) {
	rowNum := position + headerRowOffset

	prompt := NormalizeText(cellValue(row, questionAliases))
	if prompt == "" {
		return game.Question{}, &RowError{Row: rowNum, Message: "missing question"}
	}

	// Answers keep their slot order but gaps compact away: a filled
	// answer 3 after an empty answer 2 becomes the second element.
	answers := make([]string, 0, maxAnswers)
	for i := 0; i < maxAnswers; i++ {
		if a := cellValue(row, answerAliases[i]); a != "" {
			answers = append(answers, NormalizeText(a))
		}
	}

	// Marker precedence: text-only keyword, then survey keyword or an
	// empty cell, then a 1-based answer number. A cell that is somehow
	// both a keyword and a number resolves as the keyword.
	marker := cellValue(row, correctAnswerAliases)
	var correctIndex *int
	isSurvey := false
	isTextOnly := false
	switch {
	case matchesKeyword(marker, textOnlyKeywords):
		isTextOnly = true
	case marker == "" || matchesKeyword(marker, surveyKeywords):
		isSurvey = true
	default:
		n, ok := parseLeadingInt(marker)
		if !ok || n < 1 || n > len(answers) {
			return game.Question{}, &RowError{Row: rowNum, Message: fmt.Sprintf("invalid correct-answer number (%s)", marker)}
		}
		idx := n - 1
		correctIndex = &idx
	}

	// Text-only slides carry no answers at all, whatever the row holds.
	if isTextOnly {
		answers = nil
	} else if len(answers) < minAnswers {
		return game.Question{}, &RowError{Row: rowNum, Message: "at least 2 answers required"}
	}

	timeLimit := defaultTimeLimit
	if isTextOnly {
		timeLimit = textOnlyTimeLimit
	}
	if raw := cellValue(row, timeLimitAliases); raw != "" {
		if n, ok := parseLeadingInt(raw); ok && n >= 0 {
			timeLimit = n
		}
	}

	var points *int
	if raw := cellValue(row, pointsAliases); raw != "" {
		if n, ok := parseLeadingInt(raw); ok {
			points = &n
		}
	}

	return game.Question{
		ID:                 position,
		Question:           prompt,
		Answers:            answers,
		CorrectAnswerIndex: correctIndex,
		TimeLimit:          timeLimit,
		Points:             points,
		IsSurvey:           isSurvey,
		IsTextOnly:         isTextOnly,
	}, nil
}
