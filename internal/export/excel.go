package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmuoria/jadehire-agent/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	rankingSheet  = "Ranked Candidates"
	usageSheet    = "LLM Utilization"
	chartAnchor   = "F2"
	headerColor   = "4472C4"
	xlsxExtension = ".xlsx"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// ScreeningWorkbook builds the screening workbook: a summary sheet and the
// ranking with a suitability bar chart
func ScreeningWorkbook(report *models.ScreeningReport, jobDesc models.JobDescription) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("no screening report to export")
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(rankingSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to add ranking sheet: %w", err)
	}

	if err := createSummarySheet(f, summarySheet, report, jobDesc); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := createRankingSheet(f, rankingSheet, report.Results); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create ranking sheet: %w", err)
	}

	return f, nil
}

// WriteScreening streams the screening workbook to w
func WriteScreening(w io.Writer, report *models.ScreeningReport, jobDesc models.JobDescription) error {
	f, err := ScreeningWorkbook(report, jobDesc)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

// ExportScreeningToExcel saves the screening workbook, adding .xlsx if missing
func ExportScreeningToExcel(report *models.ScreeningReport, jobDesc models.JobDescription, outputPath string) error {
	f, err := ScreeningWorkbook(report, jobDesc)
	if err != nil {
		return err
	}
	defer f.Close()

	return saveWorkbook(f, outputPath)
}

// WriteUsage streams a one-sheet workbook with the usage counters
func WriteUsage(w io.Writer, snap models.UsageSnapshot, at time.Time) error {
	f, err := usageWorkbook(snap, at)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

// ExportUsageToExcel saves the usage workbook, adding .xlsx if missing
func ExportUsageToExcel(snap models.UsageSnapshot, at time.Time, outputPath string) error {
	f, err := usageWorkbook(snap, at)
	if err != nil {
		return err
	}
	defer f.Close()

	return saveWorkbook(f, outputPath)
}

// saveWorkbook writes to disk, falling back to a buffered write when SaveAs fails
func saveWorkbook(f *excelize.File, outputPath string) error {
	if !strings.HasSuffix(strings.ToLower(outputPath), xlsxExtension) {
		outputPath = outputPath + xlsxExtension
	}
	outputPath = filepath.Clean(outputPath)

	if err := f.SaveAs(outputPath); err != nil {
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}
		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}
	return nil
}

func createSummarySheet(f *excelize.File, sheetName string, report *models.ScreeningReport, jobDesc models.JobDescription) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 60)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	row := 1
	label := func(text string, value interface{}) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), text)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), value)
		row++
	}
	section := func(title string) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), title)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
		f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
		row++
	}

	section("JadeHire Screening Report")
	row++

	generated := report.CreatedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	label("Generated:", generated.Format("2006-01-02 15:04:05"))
	label("Candidates Ranked:", len(report.Results))
	label("Parsed From:", parsedFrom(report.Structured))

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Job Description:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), jobDesc.Text)
	f.SetCellStyle(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), wrapStyle)
	row += 2

	section("Statistics:")
	if len(report.Results) == 0 {
		label("Note:", "No candidate lines could be parsed from the model reply.")
		return nil
	}

	excellent, good, fair, poor := 0, 0, 0, 0
	total := 0
	highest, lowest := report.Results[0].Percentage, report.Results[0].Percentage
	for _, r := range report.Results {
		switch {
		case r.Percentage >= 90:
			excellent++
		case r.Percentage >= 70:
			good++
		case r.Percentage >= 50:
			fair++
		default:
			poor++
		}
		total += r.Percentage
		highest = max(highest, r.Percentage)
		lowest = min(lowest, r.Percentage)
	}

	label("Excellent (90-100%):", excellent)
	label("Good (70-89%):", good)
	label("Fair (50-69%):", fair)
	label("Poor (<50%):", poor)
	row++
	label("Average Match:", fmt.Sprintf("%.2f%%", float64(total)/float64(len(report.Results))))
	label("Highest Match:", fmt.Sprintf("%d%%", highest))
	label("Lowest Match:", fmt.Sprintf("%d%%", lowest))

	return nil
}

func createRankingSheet(f *excelize.File, sheetName string, results []models.MatchResult) error {
	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 70)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	bandStyles := make(map[string]int, 4)
	for band, color := range map[string]string{"excellent": "C6EFCE", "good": "FFEB9C", "fair": "FFC7CE", "poor": "FF9999"} {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    thinBorder,
		})
		if err != nil {
			return err
		}
		bandStyles[band] = style
	}

	headers := []string{"Rank", "Candidate", "Match %", "Summary"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, result := range results {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), result.Rank)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), result.Candidate)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), result.Percentage)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), result.Rationale)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), bandStyles[band(result.Percentage)])
	}

	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if len(results) == 0 {
		return nil
	}
	return addSuitabilityChart(f, sheetName, len(results))
}

// addSuitabilityChart plots Match % per candidate, best match on top
func addSuitabilityChart(f *excelize.File, sheetName string, n int) error {
	ref := fmt.Sprintf("'%s'", sheetName)
	last := n + 1

	return f.AddChart(sheetName, chartAnchor, &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$C$1", ref),
			Categories: fmt.Sprintf("%s!$B$2:$B$%d", ref, last),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", ref, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Candidate Suitability vs JD"}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{ReverseOrder: true},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: "Suitability %"}},
		},
		Dimension: excelize.ChartDimension{Width: 640, Height: uint(200 + 30*n)},
	})
}

func usageWorkbook(snap models.UsageSnapshot, at time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", usageSheet)
	f.SetColWidth(usageSheet, "A", "A", 28)
	f.SetColWidth(usageSheet, "B", "B", 20)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Generated", at.Format("2006-01-02 15:04:05")},
		{"LLM API Calls", snap.Calls},
		{"Input Tokens (approx)", snap.InputTokens},
		{"Output Tokens (approx)", snap.OutputTokens},
		{"Total Tokens (approx)", snap.TotalTokens},
	}
	for i, r := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(usageSheet, cell, &r); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write usage row: %w", err)
		}
	}
	f.SetCellStyle(usageSheet, "A1", "B1", headerStyle)

	return f, nil
}

func band(pct int) string {
	switch {
	case pct >= 90:
		return "excellent"
	case pct >= 70:
		return "good"
	case pct >= 50:
		return "fair"
	default:
		return "poor"
	}
}

func parsedFrom(structured bool) string {
	if structured {
		return "Structured JSON reply"
	}
	return "Report lines (Candidate / Match / Summary)"
}
