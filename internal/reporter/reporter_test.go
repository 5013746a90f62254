package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"
)

func createTestReport(t *testing.T) *analytics.Report {
	t.Helper()

	lines := [][5]string{
		{"2024-01-05", "SKU1", "10.00", "2", "20.00"},
		{"2024-01-06", "SKU2", "5.00", "5", "25.00"},
		{"2024-02-10", "SKU3", "1250.50", "1", "1250.50"},
	}

	records := make([]*models.SalesRecord, 0, len(lines))
	for _, l := range lines {
		record, err := models.CreateSalesRecordFromFields(l[0], l[1], l[2], l[3], l[4], nil)
		if err != nil {
			t.Fatalf("failed to create record: %v", err)
		}
		records = append(records, record)
	}

	popular := analytics.PopularItemByMonth(records)
	return &analytics.Report{
		RunID:           "run-123",
		GeneratedAt:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		RecordCount:     len(records),
		TotalSales:      analytics.TotalSales(records),
		MonthlySales:    analytics.MonthlySales(records),
		PopularItems:    popular,
		TopRevenueItems: analytics.TopRevenueItemByMonth(records),
		OrderStats:      analytics.OrderStatsByMonth(records, popular),
	}
}

func emptyReport() *analytics.Report {
	return &analytics.Report{
		RunID:           "run-empty",
		TotalSales:      decimal.Zero,
		MonthlySales:    analytics.NewMonthlyMap[decimal.Decimal](),
		PopularItems:    analytics.NewMonthlyMap[string](),
		TopRevenueItems: analytics.NewMonthlyMap[string](),
		OrderStats:      analytics.NewMonthlyMap[analytics.OrderStats](),
	}
}

func generate(t *testing.T, format OutputFormat, report *analytics.Report) *bytes.Buffer {
	t.Helper()

	config := DefaultReportConfig()
	config.Format = format
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(report, &buf); err != nil {
		t.Fatalf("failed to generate %s report: %v", format, err)
	}
	return &buf
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{
			name:        "default config",
			config:      nil,
			expectError: false,
		},
		{
			name:        "valid config",
			config:      DefaultReportConfig(),
			expectError: false,
		},
		{
			name:        "invalid format",
			config:      &ReportConfig{Format: "html"},
			expectError: true,
		},
		{
			name:        "invalid csv delimiter",
			config:      &ReportConfig{Format: FormatCSV, CSVDelimiter: '"'},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if generator == nil {
					t.Errorf("expected generator but got nil")
				}
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input     string
		expected  OutputFormat
		wantError bool
	}{
		{"console", FormatConsole, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"html", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseOutputFormat() error = %v, wantError %v", err, tt.wantError)
			}
			if got != tt.expected {
				t.Errorf("ParseOutputFormat() = %s, want %s", got, tt.expected)
			}
		})
	}

	if !FormatPDF.IsBinary() || FormatCSV.IsBinary() {
		t.Error("only xlsx and pdf are binary formats")
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount   string
		symbol   string
		expected string
	}{
		{"0", "$", "$0.00"},
		{"5", "€", "€5.00"},
		{"100", "$", "$100.00"},
		{"1234.5", "$", "$1,234.50"},
		{"-1234.5", "$", "-$1,234.50"},
		{"1234567.891", "$", "$1,234,567.89"},
		{"2.345", "$", "$2.35"},
		{"-2.345", "$", "-$2.35"},
		{"999.995", "$", "$1,000.00"},
		{"-0.001", "$", "$0.00"},
		{"123456", "", "123,456.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.amount), tt.symbol)
			if got != tt.expected {
				t.Errorf("FormatCurrency(%s) = %q, want %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestGenerateConsoleReport(t *testing.T) {
	buf := generate(t, FormatConsole, createTestReport(t))

	expected := strings.Join([]string{
		"Data loaded successfully!",
		"",
		"Total Sales: $1,295.50",
		"",
		DefaultHeading,
		"Month: 2024-01",
		"Sales Total: $45.00",
		"Most Popular Item: SKU1",
		"Top Revenue Item: SKU2",
		"Min Orders: 2",
		"Max Orders: 2",
		"Avg Orders: 2.00",
		"-----------------------------",
		"Month: 2024-02",
		"Sales Total: $1,250.50",
		"Most Popular Item: SKU3",
		"Top Revenue Item: SKU3",
		"Min Orders: 1",
		"Max Orders: 1",
		"Avg Orders: 1.00",
		"-----------------------------",
		"",
	}, "\n")

	if buf.String() != expected {
		t.Errorf("unexpected console report:\n%s\nwant:\n%s", buf.String(), expected)
	}
}

func TestGenerateConsoleReport_WithoutOrderStats(t *testing.T) {
	report := createTestReport(t)
	report.OrderStats = analytics.NewMonthlyMap[analytics.OrderStats]()

	output := generate(t, FormatConsole, report).String()

	if strings.Contains(output, "Min Orders") || strings.Contains(output, "Avg Orders") {
		t.Errorf("order statistics should be omitted when absent:\n%s", output)
	}
	if strings.Count(output, DefaultDivider) != 2 {
		t.Errorf("expected a divider after every month:\n%s", output)
	}
}

func TestGenerateConsoleReport_Empty(t *testing.T) {
	output := generate(t, FormatConsole, emptyReport()).String()

	expected := "Data loaded successfully!\n\nTotal Sales: $0.00\n\n" + DefaultHeading + "\n"
	if output != expected {
		t.Errorf("unexpected empty report %q, want %q", output, expected)
	}
}

func TestGenerateConsoleReport_NoSkippedLineCount(t *testing.T) {
	output := strings.ToLower(generate(t, FormatConsole, createTestReport(t)).String())

	for _, word := range []string{"skipped", "invalid", "error"} {
		if strings.Contains(output, word) {
			t.Errorf("report should not mention %q:\n%s", word, output)
		}
	}
}

func TestGenerateJSONReport(t *testing.T) {
	buf := generate(t, FormatJSON, createTestReport(t))

	var doc ReportDocument
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse JSON report: %v", err)
	}

	if doc.TotalSales != "1295.50" {
		t.Errorf("expected total_sales 1295.50, got %s", doc.TotalSales)
	}
	if doc.Metadata == nil || doc.Metadata.RunID != "run-123" || doc.Metadata.RecordCount != 3 {
		t.Errorf("unexpected metadata: %+v", doc.Metadata)
	}
	if len(doc.Months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(doc.Months))
	}

	jan := doc.Months[0]
	expected := MonthSummary{
		Month:          "2024-01",
		SalesTotal:     "45.00",
		PopularItem:    "SKU1",
		TopRevenueItem: "SKU2",
		OrderStats:     &OrderStatsSummary{Min: 2, Max: 2, Average: "2.00", Count: 1},
	}
	if !reflect.DeepEqual(jan, expected) {
		t.Errorf("unexpected first month %+v, want %+v", jan, expected)
	}
}

func TestGenerateJSONReport_WithoutMetadata(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	config.IncludeMetadata = false
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(createTestReport(t), &buf); err != nil {
		t.Fatalf("failed to generate report: %v", err)
	}

	if strings.Contains(buf.String(), "metadata") {
		t.Errorf("metadata should be omitted: %s", buf.String())
	}
}

func TestGenerateYAMLReport(t *testing.T) {
	buf := generate(t, FormatYAML, createTestReport(t))

	var doc ReportDocument
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse YAML report: %v", err)
	}

	if doc.TotalSales != "1295.50" {
		t.Errorf("expected total_sales 1295.50, got %s", doc.TotalSales)
	}
	if len(doc.Months) != 2 || doc.Months[1].Month != "2024-02" {
		t.Fatalf("unexpected months: %+v", doc.Months)
	}
	if doc.Months[1].OrderStats == nil || doc.Months[1].OrderStats.Average != "1.00" {
		t.Errorf("unexpected order stats: %+v", doc.Months[1].OrderStats)
	}
	if doc.Metadata == nil || !doc.Metadata.GeneratedAt.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected metadata: %+v", doc.Metadata)
	}
}

func TestGenerateCSVReport(t *testing.T) {
	buf := generate(t, FormatCSV, createTestReport(t))

	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV report: %v", err)
	}

	expected := [][]string{
		CSVHeaders,
		{"2024-01", "45.00", "SKU1", "SKU2", "2", "2", "2.00"},
		{"2024-02", "1250.50", "SKU3", "SKU3", "1", "1", "1.00"},
	}
	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("unexpected CSV rows %v, want %v", rows, expected)
	}
}

func TestGenerateCSVReport_DelimiterAndNoHeaders(t *testing.T) {
	report := createTestReport(t)
	report.OrderStats = analytics.NewMonthlyMap[analytics.OrderStats]()

	config := DefaultReportConfig()
	config.Format = FormatCSV
	config.CSVDelimiter = ';'
	config.CSVHeaders = false
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(report, &buf); err != nil {
		t.Fatalf("failed to generate report: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "2024-01;45.00;SKU1;SKU2;;;" {
		t.Errorf("unexpected first row %q", lines[0])
	}
}

func TestGenerateXLSXReport(t *testing.T) {
	buf := generate(t, FormatXLSX, createTestReport(t))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if !reflect.DeepEqual(sheets, []string{summarySheet, monthsSheet}) {
		t.Errorf("unexpected sheets %v", sheets)
	}

	cells := map[string]string{
		"A1": "Month",
		"A2": "2024-01",
		"C2": "SKU1",
		"D2": "SKU2",
		"A3": "2024-02",
		"C3": "SKU3",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(monthsSheet, cell)
		if err != nil {
			t.Fatalf("failed to read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}

	runID, _ := f.GetCellValue(summarySheet, "B6")
	if runID != "run-123" {
		t.Errorf("expected run id in summary sheet, got %q", runID)
	}
}

func TestGenerateXLSXReport_MoneyCells(t *testing.T) {
	buf := generate(t, FormatXLSX, createTestReport(t))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	cells := []struct {
		sheet string
		cell  string
		want  string
	}{
		{summarySheet, "B3", "1295.50"},
		{monthsSheet, "B2", "45.00"},
		{monthsSheet, "B3", "1250.50"},
	}
	for _, c := range cells {
		raw, err := f.GetCellValue(c.sheet, c.cell, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("failed to read %s!%s: %v", c.sheet, c.cell, err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			t.Fatalf("%s!%s is not numeric: %q", c.sheet, c.cell, raw)
		}
		if amount.StringFixed(2) != c.want {
			t.Errorf("%s!%s = %s, want %s", c.sheet, c.cell, amount.StringFixed(2), c.want)
		}

		styleID, err := f.GetCellStyle(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("failed to read style of %s!%s: %v", c.sheet, c.cell, err)
		}
		style, err := f.GetStyle(styleID)
		if err != nil {
			t.Fatalf("failed to load style %d: %v", styleID, err)
		}
		if style.NumFmt != moneyNumFmt {
			t.Errorf("%s!%s number format = %d, want %d", c.sheet, c.cell, style.NumFmt, moneyNumFmt)
		}
	}
}

func TestGeneratePDFReport(t *testing.T) {
	buf := generate(t, FormatPDF, createTestReport(t))

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF document")
	}
}

func TestGenerateReport_InvalidReport(t *testing.T) {
	generator, err := NewReportGenerator(nil)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	if err := generator.GenerateReport(nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil report")
	}
	if err := generator.GenerateReport(&analytics.Report{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for report without monthly sales")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, fmt.Errorf("pipe closed")
}

func TestSafeReportGenerator(t *testing.T) {
	srg, err := NewSafeReportGenerator(nil, nil)
	if err != nil {
		t.Fatalf("failed to create safe generator: %v", err)
	}

	var buf bytes.Buffer
	if err := srg.GenerateReportSafely(createTestReport(t), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), DefaultBanner) {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestSafeReportGenerator_Errors(t *testing.T) {
	jsonConfig := DefaultReportConfig()
	jsonConfig.Format = FormatJSON
	xlsxConfig := DefaultReportConfig()
	xlsxConfig.Format = FormatXLSX
	pdfConfig := DefaultReportConfig()
	pdfConfig.Format = FormatPDF

	tests := []struct {
		name   string
		config *ReportConfig
		report *analytics.Report
		writer func() io.Writer
		code   errors.ErrorCode
	}{
		{
			name:   "nil report",
			report: nil,
			writer: func() io.Writer { return &bytes.Buffer{} },
			code:   errors.CodeMissingField,
		},
		{
			name:   "console render failure",
			report: &analytics.Report{},
			writer: func() io.Writer { return &bytes.Buffer{} },
			code:   errors.CodeRenderFailed,
		},
		{
			name:   "fallback render failure",
			config: jsonConfig,
			report: &analytics.Report{},
			writer: func() io.Writer { return &bytes.Buffer{} },
			code:   errors.CodeUnexpectedError,
		},
		{
			name:   "xlsx render failure without fallback",
			config: xlsxConfig,
			report: &analytics.Report{},
			writer: func() io.Writer { return &bytes.Buffer{} },
			code:   errors.CodeRenderFailed,
		},
		{
			name:   "pdf render failure without fallback",
			config: pdfConfig,
			report: &analytics.Report{},
			writer: func() io.Writer { return &bytes.Buffer{} },
			code:   errors.CodeRenderFailed,
		},
		{
			name:   "write failure",
			report: createTestReport(t),
			writer: func() io.Writer { return failingWriter{} },
			code:   errors.CodeWriteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srg, err := NewSafeReportGenerator(tt.config, nil)
			if err != nil {
				t.Fatalf("failed to create safe generator: %v", err)
			}

			err = srg.GenerateReportSafely(tt.report, tt.writer())
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, appErr.Code)
			}
		})
	}
}

func TestSafeReportGenerator_FormatFallbackOnlyForText(t *testing.T) {
	tests := []struct {
		format   OutputFormat
		expected bool
	}{
		{FormatConsole, false},
		{FormatJSON, true},
		{FormatYAML, true},
		{FormatCSV, true},
		{FormatXLSX, false},
		{FormatPDF, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			config := DefaultReportConfig()
			config.Format = tt.format
			srg, err := NewSafeReportGenerator(config, nil)
			if err != nil {
				t.Fatalf("failed to create safe generator: %v", err)
			}
			if got := srg.shouldAttemptFormatFallback(); got != tt.expected {
				t.Errorf("shouldAttemptFormatFallback() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSafeReportGenerator_BinaryRenderFailureWritesNothing(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatXLSX
	srg, err := NewSafeReportGenerator(config, nil)
	if err != nil {
		t.Fatalf("failed to create safe generator: %v", err)
	}

	var buf bytes.Buffer
	if err := srg.GenerateReportSafely(&analytics.Report{}, &buf); err == nil {
		t.Fatal("expected render error")
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for failed xlsx render, got %q", buf.String())
	}
}

func TestNewSafeReportGenerator_InvalidConfig(t *testing.T) {
	_, err := NewSafeReportGenerator(&ReportConfig{Format: "html"}, nil)

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error, got %s", appErr.Category)
	}
}

func TestGenerateBackupPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"out/report.json", "out/report_backup.json"},
		{"report", "report_backup"},
		{"/tmp/sales.report.csv", "/tmp/sales.report_backup.csv"},
	}

	for _, tt := range tests {
		if got := generateBackupPath(tt.input); got != tt.expected {
			t.Errorf("generateBackupPath(%s) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}
