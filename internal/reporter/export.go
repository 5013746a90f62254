package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sales-analytics-service/internal/analytics"
)

const (
	summarySheet = "summary"
	monthsSheet  = "months"

	// built-in "#,##0.00"
	moneyNumFmt = 4
)

var monthColumns = []string{
	"Month",
	"Sales Total",
	"Most Popular Item",
	"Top Revenue Item",
	"Min Orders",
	"Max Orders",
	"Avg Orders",
}

// generateXLSXReport writes a workbook with a summary sheet and a months sheet
func (rg *ReportGenerator) generateXLSXReport(report *analytics.Report, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(monthsSheet); err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Sales Report")
	_ = f.SetCellValue(summarySheet, "A3", "Total Sales")
	_ = f.SetCellValue(summarySheet, "B3", moneyValue(report.TotalSales))
	_ = f.SetCellStyle(summarySheet, "B3", "B3", moneyStyle)
	_ = f.SetCellValue(summarySheet, "A4", "Months")
	_ = f.SetCellValue(summarySheet, "B4", report.MonthlySales.Len())
	if rg.config.IncludeMetadata {
		_ = f.SetCellValue(summarySheet, "A5", "Record Count")
		_ = f.SetCellValue(summarySheet, "B5", report.RecordCount)
		_ = f.SetCellValue(summarySheet, "A6", "Run ID")
		_ = f.SetCellValue(summarySheet, "B6", report.RunID)
		_ = f.SetCellValue(summarySheet, "A7", "Generated")
		_ = f.SetCellValue(summarySheet, "B7", report.GeneratedAt.Format(time.RFC3339))
	}

	for i, title := range monthColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellValue(monthsSheet, cell, title)
	}

	for i, month := range report.Months() {
		row := i + 2
		total, _ := report.MonthlySales.Get(month)
		popular, _ := report.PopularItems.Get(month)
		topRevenue, _ := report.TopRevenueItems.Get(month)

		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("A%d", row), month.String())
		totalCell := fmt.Sprintf("B%d", row)
		_ = f.SetCellValue(monthsSheet, totalCell, moneyValue(total))
		_ = f.SetCellStyle(monthsSheet, totalCell, totalCell, moneyStyle)
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("C%d", row), popular)
		_ = f.SetCellValue(monthsSheet, fmt.Sprintf("D%d", row), topRevenue)
		if stats, ok := report.OrderStats.Get(month); ok {
			_ = f.SetCellValue(monthsSheet, fmt.Sprintf("E%d", row), stats.Min)
			_ = f.SetCellValue(monthsSheet, fmt.Sprintf("F%d", row), stats.Max)
			_ = f.SetCellValue(monthsSheet, fmt.Sprintf("G%d", row), stats.Average)
		}
	}

	return f.Write(writer)
}

// moneyValue rounds to cents before the conversion so the stored float is
// the nearest one to the two-decimal amount
func moneyValue(amount decimal.Decimal) float64 {
	value, _ := amount.Round(2).Float64()
	return value
}

// generatePDFReport writes a single document with the total and a month table
func (rg *ReportGenerator) generatePDFReport(report *analytics.Report, writer io.Writer) error {
	symbol := rg.config.CurrencySymbol

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Sales Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if rg.config.IncludeMetadata {
		pdf.Cell(0, 6, fmt.Sprintf("Run: %s", report.RunID))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Total Sales: %s", FormatCurrency(report.TotalSales, symbol)))
	pdf.Ln(8)

	widths := []float64{25, 40, 55, 55, 30, 30, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, title := range monthColumns {
		pdf.CellFormat(widths[i], 6, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, month := range report.Months() {
		total, _ := report.MonthlySales.Get(month)
		popular, _ := report.PopularItems.Get(month)
		topRevenue, _ := report.TopRevenueItems.Get(month)

		minOrders, maxOrders, avgOrders := "", "", ""
		if stats, ok := report.OrderStats.Get(month); ok {
			minOrders = fmt.Sprintf("%d", stats.Min)
			maxOrders = fmt.Sprintf("%d", stats.Max)
			avgOrders = formatAverage(stats.Average)
		}

		pdf.CellFormat(widths[0], 6, month.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, FormatCurrency(total, symbol), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, popular, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 6, topRevenue, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 6, minOrders, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, maxOrders, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, avgOrders, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(writer)
}
