package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JustusHenke/QlassifAI/internal/model"
	"github.com/JustusHenke/QlassifAI/internal/source"
)

// Writer produces the analyzed-results workbooks. It owns column layout;
// the analysis packages only hand it finished records.
type Writer struct {
	schema      *model.Schema
	withReasons bool
}

// NewWriter creates a result writer for the given schema
func NewWriter(schema *model.Schema, withReasons bool) *Writer {
	return &Writer{schema: schema, withReasons: withReasons}
}

// WriteSurvey writes one worksheet per source sheet with the original text
// and the analysis columns. Results and assignments align 1:1 with the
// survey's rows in sheet order.
func (w *Writer) WriteSurvey(path string, survey *source.Survey, results []model.ExtractionResult, assignments [][]string) error {
	if survey.TotalRows() != len(results) {
		return fmt.Errorf("write survey results: %d rows but %d results", survey.TotalRows(), len(results))
	}
	if len(assignments) != len(results) {
		return fmt.Errorf("write survey results: %d results but %d category assignments", len(results), len(assignments))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	offset := 0
	for i, sheet := range survey.Sheets {
		name := sheet.Name
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %s: %w", name, err)
			}
		}

		headers := append([]string{"Row", sheet.Header}, w.resultHeaders()...)
		if err := writeHeaderRow(f, name, headers); err != nil {
			return err
		}

		for j, row := range sheet.Rows {
			result := results[offset+j]
			cells := append(
				[]interface{}{row.Index, row.Text},
				w.resultCells(result.Paraphrase, string(result.Sentiment), result.SentimentReason,
					result.Keywords, result.Checks, result.CheckReasons,
					assignments[offset+j], result.Err)...,
			)
			if err := writeRow(f, name, j+2, cells); err != nil {
				return err
			}
		}
		offset += len(sheet.Rows)

		_ = f.SetColWidth(name, "B", "B", 60)
		_ = f.SetColWidth(name, "C", "C", 48)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// WriteDocuments writes one worksheet with a row per merged document record
func (w *Writer) WriteDocuments(path string, results []model.MergedResult, assignments [][]string) error {
	if len(assignments) != len(results) {
		return fmt.Errorf("write document results: %d results but %d category assignments", len(results), len(assignments))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Documents"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := append([]string{"Filename", "Chunks"}, w.resultHeaders()...)
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i, result := range results {
		cells := append(
			[]interface{}{result.Filename, result.ChunkCount},
			w.resultCells(result.Paraphrase, model.SentimentLabel(result.Sentiment), result.SentimentReason,
				result.Keywords, result.Checks, result.CheckReasons,
				assignments[i], result.Err)...,
		)
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "C", "C", 60)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// resultHeaders builds the shared analysis column headers
func (w *Writer) resultHeaders() []string {
	headers := []string{"Paraphrase", "Sentiment", "Sentiment Reason", "Keywords"}
	for _, attr := range w.schema.Attributes() {
		headers = append(headers, attr.Question)
		if w.withReasons {
			headers = append(headers, attr.Question+" (reason)")
		}
	}
	return append(headers, "Categories", "Error")
}

// resultCells renders the shared analysis columns for one record
func (w *Writer) resultCells(paraphrase, sentiment, reason string, keywords []string, checks model.CheckSet, checkReasons map[string]string, categories []string, errMsg string) []interface{} {
	cells := []interface{}{
		paraphrase,
		sentiment,
		reason,
		strings.Join(keywords, ", "),
	}
	for _, attr := range w.schema.Attributes() {
		cells = append(cells, checks[attr.ID].Render())
		if w.withReasons {
			cells = append(cells, checkReasons[attr.ID])
		}
	}
	return append(cells, strings.Join(categories, ", "), errMsg)
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []interface{}) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
