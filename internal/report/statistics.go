package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// Section describes one slice of the assignment list, usually a source
// sheet. Counts must sum to the assignment list length.
type Section struct {
	Name  string
	Count int
}

// WriteStatistics writes the category-frequency workbook: one block per
// section plus a combined block, each listing categories by descending
// frequency with the keywords behind them.
func WriteStatistics(path string, sections []Section, assignments [][]string, categories model.CategoryMap) error {
	total := 0
	for _, s := range sections {
		total += s.Count
	}
	if total != len(assignments) {
		return fmt.Errorf("write statistics: sections cover %d rows but %d assignments given", total, len(assignments))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Category Statistics"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	offset := 0
	for _, section := range sections {
		slice := assignments[offset : offset+section.Count]
		offset += section.Count

		var err error
		row, err = writeFrequencyBlock(f, sheet, row, "Sheet: "+section.Name, countCategories(slice), categories)
		if err != nil {
			return err
		}
	}

	if _, err := writeFrequencyBlock(f, sheet, row, "Combined", countCategories(assignments), categories); err != nil {
		return err
	}

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "C", "C", 80)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save statistics %s: %w", path, err)
	}
	return nil
}

// countCategories tallies category occurrences across assignment lists
func countCategories(assignments [][]string) map[string]int {
	frequencies := make(map[string]int)
	for _, categories := range assignments {
		for _, category := range categories {
			frequencies[category]++
		}
	}
	return frequencies
}

// writeFrequencyBlock renders one titled frequency table and returns the
// next free row (leaving one blank row after the block).
func writeFrequencyBlock(f *excelize.File, sheet string, row int, title string, frequencies map[string]int, categories model.CategoryMap) (int, error) {
	set := func(col, r int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, r)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	if err := set(1, row, title); err != nil {
		return 0, err
	}
	row++

	for i, h := range []string{"Category", "Frequency", "Keywords"} {
		if err := set(i+1, row, h); err != nil {
			return 0, err
		}
	}
	row++

	// Descending frequency, name ascending on ties.
	names := make([]string, 0, len(frequencies))
	for name := range frequencies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if frequencies[names[i]] != frequencies[names[j]] {
			return frequencies[names[i]] > frequencies[names[j]]
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		if err := set(1, row, name); err != nil {
			return 0, err
		}
		if err := set(2, row, frequencies[name]); err != nil {
			return 0, err
		}
		if keywords, ok := categories[name]; ok {
			sorted := append([]string(nil), keywords...)
			sort.Strings(sorted)
			if err := set(3, row, strings.Join(sorted, ", ")); err != nil {
				return 0, err
			}
		}
		row++
	}

	return row + 1, nil
}
