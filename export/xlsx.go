package export

import (
	"bytes"
	"fmt"
	"strconv"

	"consumptionanalysis/analysis"
	"consumptionanalysis/store"

	"github.com/xuri/excelize/v2"
)

const (
	colorPrimary   = "#4F46E5"
	colorSecondary = "#06B6D4"
	colorIncome    = "#D4EFDF"
	colorExpense   = "#FADBD8"
)

const (
	summarySheet = "Summary"
	recordsSheet = "Records"
)

type workbookStyles struct {
	title, header, number, income, expense, total int
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 16, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorPrimary}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorSecondary}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.number, &excelize.Style{
			Alignment: &excelize.Alignment{Horizontal: "right"},
			NumFmt:    4, // #,##0.00
		}},
		{&s.income, &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{colorIncome}, Pattern: 1},
		}},
		{&s.expense, &excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{colorExpense}, Pattern: 1},
		}},
		{&s.total, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			NumFmt: 4,
			Border: []excelize.Border{{Type: "top", Color: colorPrimary, Style: 2}},
		}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
	}
	return s, nil
}

// Workbook lays a report out as an XLSX file: a summary sheet, one sheet per
// analysis need and the raw records of the period.
func Workbook(report *analysis.Report, records []*store.Consumption) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, styles, report); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}

	for i, entry := range report.Entries {
		name := fmt.Sprintf("Need %d", i+1)
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeEntrySheet(f, styles, name, entry); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, err
	}
	if err := writeRecordsSheet(f, styles, records); err != nil {
		return nil, fmt.Errorf("records sheet: %w", err)
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, st workbookStyles, report *analysis.Report) error {
	sheet := summarySheet
	if err := titleRow(f, st, sheet, "D", fmt.Sprintf("Consumption report: %s", report.UserName)); err != nil {
		return err
	}

	rows := [][]any{
		{"Period", fmt.Sprintf("%s to %s", report.StartDate, report.EndDate)},
		{"Records", report.Count},
		{"Total", report.Total.InexactFloat64()},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Summary", report.Summary},
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "B4", "B4", st.number); err != nil {
		return err
	}

	headerRow := len(rows) + 3
	if err := headerCells(f, st, sheet, headerRow, "Need", "Chart", "Summary", "Chart URL"); err != nil {
		return err
	}
	for i, entry := range report.Entries {
		url := entry.ChartURL
		if entry.Empty {
			url = "no data"
		}
		row := []any{entry.Need, string(entry.Chart.Kind), entry.Summary, url}
		if err := setRow(f, sheet, headerRow+1+i, row); err != nil {
			return err
		}
	}

	return setWidths(f, sheet, 28, 14, 60, 40)
}

func writeEntrySheet(f *excelize.File, st workbookStyles, sheet string, entry analysis.Entry) error {
	if err := titleRow(f, st, sheet, "D", entry.Need); err != nil {
		return err
	}

	comparison := entry.Dimension == analysis.ByCategoryComparison
	headers := []string{"Group", "Total", "Count"}
	if comparison {
		headers = append(headers, "Previous")
	}
	if err := headerCells(f, st, sheet, 2, headers...); err != nil {
		return err
	}

	row := 3
	for _, g := range entry.Result.Groups {
		values := []any{g.Key, g.Total.InexactFloat64(), g.Count}
		if comparison && g.Previous != nil {
			values = append(values, g.Previous.InexactFloat64())
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	if err := setRow(f, sheet, row, []any{"Total", entry.Result.Total.InexactFloat64(), entry.Result.Count}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A"+strconv.Itoa(row), "C"+strconv.Itoa(row), st.total); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "B3", "B"+strconv.Itoa(row), st.number); err != nil {
		return err
	}
	return setWidths(f, sheet, 24, 16, 10, 16)
}

func writeRecordsSheet(f *excelize.File, st workbookStyles, records []*store.Consumption) error {
	sheet := recordsSheet
	if err := headerCells(f, st, sheet, 1, "Time", "Type", "Category", "Merchant", "Description", "Amount"); err != nil {
		return err
	}

	for i, r := range records {
		row := i + 2
		values := []any{
			r.TransactionTime.UTC().Format("2006-01-02 15:04"),
			r.TransactionType,
			r.Category,
			r.MerchantName,
			r.Description,
			r.Amount.InexactFloat64(),
		}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}

		style := st.expense
		if r.TransactionType == store.TypeIncome {
			style = st.income
		}
		if err := f.SetCellStyle(sheet, "A"+strconv.Itoa(row), "E"+strconv.Itoa(row), style); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "F"+strconv.Itoa(row), "F"+strconv.Itoa(row), st.number); err != nil {
			return err
		}
	}
	return setWidths(f, sheet, 18, 10, 16, 20, 30, 14)
}

func titleRow(f *excelize.File, st workbookStyles, sheet, lastCol, title string) error {
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.title); err != nil {
		return err
	}
	return f.SetRowHeight(sheet, 1, 30)
}

func headerCells(f *excelize.File, st workbookStyles, sheet string, row int, headers ...string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := setRow(f, sheet, row, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A"+strconv.Itoa(row), last, st.header)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func setWidths(f *excelize.File, sheet string, widths ...float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}
