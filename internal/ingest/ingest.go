package ingest

import (
	"github.com/27180781/trivia-master-offline/internal/game"
)

// BatchResult is the outcome of one ingestion run. Success is true as
// soon as any question survived, even if other rows errored.
type BatchResult struct {
	Success   bool            `json:"success"`
	Questions []game.Question `json:"questions"`
	Errors    []RowError      `json:"errors,omitempty"`
}

func fatal(message string) BatchResult {
	return BatchResult{Errors: []RowError{{Message: message}}}
}

// Ingest classifies every row independently and collects per-row errors
// without aborting the batch: one malformed row never discards the rest
// of the upload. Only a missing required column (or an empty file) is
// fatal to the whole batch.
func Ingest(rows []Row) BatchResult {
	if len(rows) == 0 {
		return fatal("file is empty")
	}

	first := rows[0]
	if !hasColumn(first, questionAliases) {
		return fatal("no question column found")
	}
	if !hasColumn(first, correctAnswerAliases) {
		return fatal("no correct-answer column found")
	}

	var questions []game.Question
	var errs []RowError
	for i, row := range rows {
		q, rowErr := classifyRow(row, i+1)
		if rowErr != nil {
			errs = append(errs, *rowErr)
			continue
		}
		questions = append(questions, q)
	}

	return BatchResult{
		Success:   len(questions) > 0,
		Questions: questions,
		Errors:    errs,
	}
}
