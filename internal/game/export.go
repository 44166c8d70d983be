package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportReveal appends the just-revealed question to a plain-text game
// log. Hosts use the file as a paper trail of what was shown during a
// run.
func ExportReveal(s *Session, filename string) error {
	st := s.State()
	if st.Question == nil {
		return nil
	}
	q := st.Question

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(filename); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder

	// Header for a new file or a fresh run from the first question.
	if !fileExists || st.Index == 0 {
		if fileExists {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("Trivia Master Game Log - Session %s\n", st.Code))
		sb.WriteString(fmt.Sprintf("Started: %s\n", time.Now().Format("2006-01-02 15:04:05")))
		sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("Question %d/%d: %s\n", st.Index+1, st.QuestionCount, strings.ReplaceAll(q.Question, "\n", " ")))
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for i, a := range q.Answers {
		marker := " "
		if q.CorrectAnswerIndex != nil && *q.CorrectAnswerIndex == i {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s\n", marker, i+1, a))
	}
	switch {
	case q.IsSurvey:
		sb.WriteString("(survey - no correct answer)\n")
	case q.IsTextOnly:
		sb.WriteString("(text slide)\n")
	}
	sb.WriteString("\n")

	if st.Index == st.QuestionCount-1 {
		sb.WriteString(fmt.Sprintf("Game ended at %s\n", time.Now().Format("2006-01-02 15:04:05")))
		sb.WriteString(strings.Repeat("=", 50) + "\n")
	}

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
