package ingest

import "testing"

func TestIngestEmptyFile(t *testing.T) {
	result := Ingest(nil)
	if result.Success {
		t.Fatal("empty file must not succeed")
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "file is empty" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Errors[0].Row != 0 {
		t.Fatal("batch-fatal errors carry no row number")
	}
}

func TestIngestMissingQuestionColumn(t *testing.T) {
	rows := []Row{{"something": "x", "מספר תשובה נכונה": "1"}}
	result := Ingest(rows)
	if result.Success {
		t.Fatal("must fail without a question column")
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "no question column found" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Questions) != 0 {
		t.Fatal("nothing downstream should run after a fatal check")
	}
}

func TestIngestMissingCorrectAnswerColumn(t *testing.T) {
	rows := []Row{{"שאלה": "q", "תשובה 1": "a", "תשובה 2": "b"}}
	result := Ingest(rows)
	if result.Success {
		t.Fatal("must fail without a correct-answer column")
	}
	if len(result.Errors) != 1 || result.Errors[0].Message != "no correct-answer column found" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
}

func TestIngestPartialFailure(t *testing.T) {
	good := func(prompt string) Row {
		return Row{
			"שאלה":             prompt,
			"תשובה 1":          "a",
			"תשובה 2":          "b",
			"מספר תשובה נכונה": "1",
		}
	}
	bad := good("broken")
	bad["מספר תשובה נכונה"] = "9"

	rows := []Row{good("one"), good("two"), bad, good("four")}
	result := Ingest(rows)

	if !result.Success {
		t.Fatal("batch with surviving rows must succeed")
	}
	if len(result.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(result.Questions))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(result.Errors))
	}
	// Row 3 of the data is spreadsheet row 4 (header row counts).
	if result.Errors[0].Row != 4 {
		t.Fatalf("expected error on row 4, got %d", result.Errors[0].Row)
	}
	// IDs follow source position, so the gap stays visible.
	if result.Questions[2].ID != 4 {
		t.Fatalf("expected last question id 4, got %d", result.Questions[2].ID)
	}
}

func TestIngestAllRowsFailed(t *testing.T) {
	rows := []Row{
		{"שאלה": "", "מספר תשובה נכונה": "1"},
		{"שאלה": "q", "מספר תשובה נכונה": "5"},
	}
	result := Ingest(rows)
	if result.Success {
		t.Fatal("a batch with zero surviving rows is a failure")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %d", len(result.Errors))
	}
}

func TestIngestEndToEnd(t *testing.T) {
	rows := []Row{
		{"שאלה": "2+2?", "תשובה 1": "3", "תשובה 2": "4", "מספר תשובה נכונה": "2"},
		{"שאלה": "Best color?", "תשובה 1": "red", "תשובה 2": "blue", "מספר תשובה נכונה": ""},
	}
	result := Ingest(rows)
	if !result.Success {
		t.Fatalf("expected success, errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no row errors, got %v", result.Errors)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(result.Questions))
	}

	q1, q2 := result.Questions[0], result.Questions[1]
	if q1.ID != 1 || q1.IsSurvey || q1.IsTextOnly {
		t.Fatalf("first question misclassified: %+v", q1)
	}
	if q1.CorrectAnswerIndex == nil || *q1.CorrectAnswerIndex != 1 {
		t.Fatalf("first question correct index wrong: %v", q1.CorrectAnswerIndex)
	}
	if q2.ID != 2 || !q2.IsSurvey {
		t.Fatalf("second question should be a survey: %+v", q2)
	}
	if q2.CorrectAnswerIndex != nil {
		t.Fatal("survey question must not carry a correct index")
	}
}
