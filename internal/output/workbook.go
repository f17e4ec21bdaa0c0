package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/helheim/content_ranker/internal/domain"
)

const (
	SheetRanking = "Ranking"
	SheetLevels  = "Levels"
)

var variantTitles = map[domain.Variant]string{
	domain.VariantPessimistic: "Pessimistic",
	domain.VariantExpected:    "Expected",
	domain.VariantOptimistic:  "Optimistic",
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WorkbookPath is the workbook file for name inside dir.
func WorkbookPath(dir, name string) string {
	return filepath.Join(dir, name+".xlsx")
}

// WriteWorkbook exports the ranking and the per-level means with their trend charts.
func WriteWorkbook(path string, kind domain.Kind, entities []domain.Entity, summaries []domain.VariantSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetRanking); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetLevels); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	pctStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}

	if err := writeRanking(f, kind, entities, headerStyle, numStyle); err != nil {
		return fmt.Errorf("ranking sheet: %w", err)
	}
	levels, err := writeLevels(f, summaries, headerStyle, numStyle, pctStyle)
	if err != nil {
		return fmt.Errorf("levels sheet: %w", err)
	}
	if levels > 0 && len(summaries) > 0 {
		if err := addCharts(f, kind, levels, len(summaries)); err != nil {
			return fmt.Errorf("charts: %w", err)
		}
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func writeRanking(f *excelize.File, kind domain.Kind, entities []domain.Entity, headerStyle, numStyle int) error {
	sheet := SheetRanking
	headers := []string{"#", "ID", "Level", "Pessimistic", "Expected", "Optimistic"}
	if kind == domain.KindMob {
		headers = append(headers, "Display", "Health", "Damage")
	} else {
		headers = append(headers, "Attributes")
	}
	for i, h := range headers {
		f.SetCellValue(sheet, cell(i+1, 1), h)
	}
	if err := f.SetCellStyle(sheet, "A1", cell(len(headers), 1), headerStyle); err != nil {
		return err
	}

	for i, e := range entities {
		row := i + 2
		f.SetCellValue(sheet, cell(1, row), i+1)
		f.SetCellValue(sheet, cell(2, row), e.ID)
		f.SetCellValue(sheet, cell(3, row), e.Level)
		f.SetCellValue(sheet, cell(4, row), e.Scores.Pessimistic)
		f.SetCellValue(sheet, cell(5, row), e.Scores.Expected)
		f.SetCellValue(sheet, cell(6, row), e.Scores.Optimistic)
		if kind == domain.KindMob {
			f.SetCellValue(sheet, cell(7, row), e.Display)
			f.SetCellValue(sheet, cell(8, row), e.Health)
			f.SetCellValue(sheet, cell(9, row), e.Damage)
		} else {
			f.SetCellValue(sheet, cell(7, row), len(e.Attributes))
		}
	}
	if last := len(entities) + 1; last >= 2 {
		if err := f.SetCellStyle(sheet, cell(4, 2), cell(6, last), numStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "D", "F", 14); err != nil {
		return err
	}
	if kind == domain.KindMob {
		return f.SetColWidth(sheet, "G", "G", 36)
	}
	return nil
}

// writeLevels lays out one row per level:
// Level | mean per variant | percent change per variant | samples.
// It returns the number of level rows written.
func writeLevels(f *excelize.File, summaries []domain.VariantSummary, headerStyle, numStyle, pctStyle int) (int, error) {
	sheet := SheetLevels

	levelSet := make(map[int]struct{})
	for _, s := range summaries {
		for _, b := range s.Buckets {
			levelSet[b.Level] = struct{}{}
		}
	}
	levels := make([]int, 0, len(levelSet))
	for l := range levelSet {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	rowOf := make(map[int]int, len(levels))
	for i, l := range levels {
		rowOf[l] = i + 2
	}

	n := len(summaries)
	f.SetCellValue(sheet, "A1", "Level")
	for i, s := range summaries {
		title := variantTitles[s.Variant]
		f.SetCellValue(sheet, cell(2+i, 1), title+" mean")
		f.SetCellValue(sheet, cell(2+n+i, 1), title+" %")
	}
	samplesCol := 2 + 2*n
	f.SetCellValue(sheet, cell(samplesCol, 1), "Samples")
	if err := f.SetCellStyle(sheet, "A1", cell(samplesCol, 1), headerStyle); err != nil {
		return 0, err
	}

	for _, l := range levels {
		f.SetCellValue(sheet, cell(1, rowOf[l]), l)
	}
	for i, s := range summaries {
		for _, b := range s.Buckets {
			f.SetCellValue(sheet, cell(2+i, rowOf[b.Level]), b.Mean)
			if s.Variant == domain.VariantExpected {
				f.SetCellValue(sheet, cell(samplesCol, rowOf[b.Level]), b.Samples)
			}
		}
		for _, p := range s.Trend {
			f.SetCellValue(sheet, cell(2+n+i, rowOf[p.Level]), p.PercentChange/100)
		}
	}

	if len(levels) > 0 && n > 0 {
		last := len(levels) + 1
		if err := f.SetCellStyle(sheet, cell(2, 2), cell(1+n, last), numStyle); err != nil {
			return 0, err
		}
		if err := f.SetCellStyle(sheet, cell(2+n, 2), cell(1+2*n, last), pctStyle); err != nil {
			return 0, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(samplesCol)
	if err := f.SetColWidth(sheet, "B", lastCol, 16); err != nil {
		return 0, err
	}
	return len(levels), nil
}

// addCharts plots the n variant mean columns and the n percent columns of the Levels sheet.
func addCharts(f *excelize.File, kind domain.Kind, levels, n int) error {
	sheet := SheetLevels
	last := levels + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", sheet, last)

	means := make([]excelize.ChartSeries, 0, n)
	changes := make([]excelize.ChartSeries, 0, n)
	for i := 0; i < n; i++ {
		meanCol, _ := excelize.ColumnNumberToName(2 + i)
		pctCol, _ := excelize.ColumnNumberToName(2 + n + i)
		means = append(means, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, meanCol),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, meanCol, meanCol, last),
		})
		changes = append(changes, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, pctCol),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, pctCol, pctCol, last),
		})
	}

	anchorCol, _ := excelize.ColumnNumberToName(2*n + 4)
	if err := f.AddChart(sheet, anchorCol+"2", &excelize.Chart{
		Type:      excelize.Line,
		Series:    means,
		Title:     []excelize.RichTextRun{{Text: fmt.Sprintf("%s score / level", kind)}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 360},
	}); err != nil {
		return err
	}
	return f.AddChart(sheet, anchorCol+"22", &excelize.Chart{
		Type:      excelize.Line,
		Series:    changes,
		Title:     []excelize.RichTextRun{{Text: fmt.Sprintf("%s score change between levels", kind)}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 720, Height: 360},
	})
}
