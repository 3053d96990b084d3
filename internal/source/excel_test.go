package source

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Text", "text"},
		{"  ANSWER  ", "answer"},
		{"\uFEFFtext", "text"},
		{"Text Antwort", "text antwort"},
		{"open​ response", "open response"},
		{"Multi   space   header", "multi space header"},
	}

	for _, tc := range cases {
		if got := normalizeHeader(tc.in); got != tc.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocateTextColumn(t *testing.T) {
	rows := [][]string{
		{"Survey 2025", "", ""},
		{"ID", "Antwort", "Comment"},
		{"1", "Some answer", "x"},
	}

	header, headerRow, col, found := locateTextColumn(rows, []string{"text", "answer", "antwort"})
	if !found {
		t.Fatal("expected the header to be found")
	}
	if header != "Antwort" || headerRow != 2 || col != 2 {
		t.Errorf("unexpected location: header=%q row=%d col=%d", header, headerRow, col)
	}

	_, _, _, found = locateTextColumn(rows, []string{"nonexistent"})
	if found {
		t.Error("expected a miss for an unknown header")
	}
}

func TestLocateTextColumn_HeaderBeyondSearchLimit(t *testing.T) {
	rows := [][]string{
		{"a"}, {"b"}, {"c"}, {"d"}, {"e"},
		{"Text"}, // row 6, past the limit
	}

	if _, _, _, found := locateTextColumn(rows, []string{"text"}); found {
		t.Error("headers past the search limit must not match")
	}
}

// writeTestWorkbook builds a workbook with one compatible and one
// incompatible sheet.
func writeTestWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), "Responses"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	cells := map[string]interface{}{
		"A1": "ID", "B1": "Answer",
		"A2": 1, "B2": "The funding process was smooth.",
		"A3": 2, "B3": "   ",
		"A4": 3, "B4": "Staff were unhelpful.",
	}
	for cell, v := range cells {
		if err := f.SetCellValue("Responses", cell, v); err != nil {
			t.Fatalf("set cell %s: %v", cell, err)
		}
	}

	if _, err := f.NewSheet("Metadata"); err != nil {
		t.Fatalf("create sheet: %v", err)
	}
	if err := f.SetCellValue("Metadata", "A1", "Version"); err != nil {
		t.Fatalf("set cell: %v", err)
	}

	path := filepath.Join(t.TempDir(), "survey.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestLoadSurvey(t *testing.T) {
	path := writeTestWorkbook(t)

	survey, err := LoadSurvey(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(survey.Sheets) != 1 {
		t.Fatalf("expected 1 compatible sheet, got %d", len(survey.Sheets))
	}
	sheet := survey.Sheets[0]
	if sheet.Name != "Responses" {
		t.Errorf("unexpected sheet name %q", sheet.Name)
	}
	if sheet.TextCol != 2 || sheet.HeaderRow != 1 {
		t.Errorf("unexpected column location: col=%d headerRow=%d", sheet.TextCol, sheet.HeaderRow)
	}
	// The whitespace-only cell in row 3 is dropped.
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(sheet.Rows))
	}
	if sheet.Rows[0].Index != 2 || sheet.Rows[0].Text != "The funding process was smooth." {
		t.Errorf("unexpected first row: %+v", sheet.Rows[0])
	}
	if sheet.Rows[1].Index != 4 {
		t.Errorf("expected row index 4, got %d", sheet.Rows[1].Index)
	}
	if survey.TotalRows() != 2 {
		t.Errorf("expected 2 total rows, got %d", survey.TotalRows())
	}
}

func TestLoadSurvey_CustomTextColumn(t *testing.T) {
	path := writeTestWorkbook(t)

	// "ID" is normally not a text column; forcing it must work.
	survey, err := LoadSurvey(path, "ID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if survey.Sheets[0].TextCol != 1 {
		t.Errorf("expected the forced column 1, got %d", survey.Sheets[0].TextCol)
	}
}

func TestLoadSurvey_NoCompatibleSheets(t *testing.T) {
	path := writeTestWorkbook(t)

	_, err := LoadSurvey(path, "nonexistent column")
	if err == nil {
		t.Fatal("expected error for a workbook without compatible sheets")
	}
	if _, ok := err.(*ErrNoCompatibleSheets); !ok {
		t.Errorf("expected *ErrNoCompatibleSheets, got %T", err)
	}
}

func TestLoadSurvey_MissingFile(t *testing.T) {
	if _, err := LoadSurvey(filepath.Join(t.TempDir(), "missing.xlsx"), ""); err == nil {
		t.Error("expected error for a missing workbook")
	}
}
