package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// defaultTextColumns are the header names recognized as survey text columns
// (case-insensitive, contains-match after normalization). The German
// variants survive from the survey tooling this loader grew up with.
var defaultTextColumns = []string{"text", "answer", "response", "antwort", "textantwort"}

// maxHeaderRows bounds the header search from the top of each sheet
const maxHeaderRows = 5

// ErrNoCompatibleSheets is returned when no sheet carries a recognizable
// text column with data.
type ErrNoCompatibleSheets struct {
	Path string
}

func (e *ErrNoCompatibleSheets) Error() string {
	return fmt.Sprintf("no compatible sheets found in %s (expected a column named one of: %s)", e.Path, strings.Join(defaultTextColumns, ", "))
}

// Row is one survey response cell
type Row struct {
	// Index is the 1-based row number in the sheet
	Index int

	// Text is the trimmed cell content
	Text string
}

// Sheet is one compatible worksheet
type Sheet struct {
	Name      string
	Header    string // the header cell as found
	HeaderRow int    // 1-based
	TextCol   int    // 1-based
	Rows      []Row
}

// Survey is a loaded workbook reduced to its analyzable text cells
type Survey struct {
	Path   string
	Sheets []Sheet
}

// TotalRows counts the data rows across all sheets
func (s *Survey) TotalRows() int {
	total := 0
	for _, sheet := range s.Sheets {
		total += len(sheet.Rows)
	}
	return total
}

// LoadSurvey opens a workbook and extracts the text cells of every
// compatible sheet. A non-empty textColumn overrides the default header
// names. Hidden (filtered) rows are skipped.
func LoadSurvey(path, textColumn string) (*Survey, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	wanted := defaultTextColumns
	if textColumn != "" {
		wanted = []string{normalizeHeader(textColumn)}
	} else {
		normalized := make([]string, len(wanted))
		for i, w := range wanted {
			normalized[i] = normalizeHeader(w)
		}
		wanted = normalized
	}

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}

		header, headerRow, col, found := locateTextColumn(rows, wanted)
		if !found {
			continue
		}

		sheet := Sheet{
			Name:      name,
			Header:    header,
			HeaderRow: headerRow,
			TextCol:   col,
		}

		for r := headerRow; r < len(rows); r++ {
			rowNum := r + 1
			if visible, err := f.GetRowVisible(name, rowNum); err == nil && !visible {
				continue
			}
			row := rows[r]
			if col-1 >= len(row) {
				continue
			}
			text := strings.TrimSpace(row[col-1])
			if text == "" {
				continue
			}
			sheet.Rows = append(sheet.Rows, Row{Index: rowNum, Text: text})
		}

		if len(sheet.Rows) > 0 {
			sheets = append(sheets, sheet)
		}
	}

	if len(sheets) == 0 {
		return nil, &ErrNoCompatibleSheets{Path: path}
	}

	return &Survey{Path: path, Sheets: sheets}, nil
}

// locateTextColumn scans the first rows of a sheet for a wanted header.
// Returned row and column indices are 1-based.
func locateTextColumn(rows [][]string, wanted []string) (header string, headerRow, col int, found bool) {
	limit := maxHeaderRows
	if len(rows) < limit {
		limit = len(rows)
	}

	for r := 0; r < limit; r++ {
		for c, cell := range rows[r] {
			if cell == "" {
				continue
			}
			norm := normalizeHeader(cell)
			for _, w := range wanted {
				if w != "" && (norm == w || strings.Contains(norm, w)) {
					return cell, r + 1, c + 1, true
				}
			}
		}
	}
	return "", 0, 0, false
}

// normalizeHeader makes header matching robust against the usual spreadsheet
// noise: BOM, zero-width characters, non-breaking spaces, stray whitespace.
func normalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\uFEFF", "")
	s = strings.ReplaceAll(s, "​", "")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
