// Package reporter renders an analytics.Report in the supported output formats.
//
// Supported output formats:
//   - Console: the plain text sales report, one block per month
//   - JSON and YAML: structured documents for programmatic consumption
//   - CSV: one row per month for spreadsheet applications
//   - XLSX: a workbook with a summary sheet and a months sheet
//   - PDF: a printable one page summary with a table of months
//
// Parse diagnostics are never part of a report; they are logged instead.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(report, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/pkg/logger"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
	FormatPDF     OutputFormat = "pdf"
)

// SupportedFormats lists every format accepted by ParseOutputFormat
var SupportedFormats = []OutputFormat{FormatConsole, FormatJSON, FormatYAML, FormatCSV, FormatXLSX, FormatPDF}

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	for _, supported := range SupportedFormats {
		if f == supported {
			return true
		}
	}
	return false
}

// IsBinary reports whether the format produces non-text output
func (f OutputFormat) IsBinary() bool {
	return f == FormatXLSX || f == FormatPDF
}

// ParseOutputFormat converts a user supplied name into an OutputFormat
func ParseOutputFormat(name string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(name)))
	if format == "yml" {
		format = FormatYAML
	}
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format: %s", name)
	}
	return format, nil
}

const (
	// DefaultBanner is printed ahead of the console report
	DefaultBanner = "Data loaded successfully!"
	// DefaultHeading introduces the per-month section of the console report
	DefaultHeading = "Month wise Total Sales, Most Popular Item, Top Revenue Item and Min/Max/Avg Orders:"
	// DefaultDivider separates months in the console report
	DefaultDivider = "-----------------------------"
)

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console formatting options
	CurrencySymbol string `json:"currency_symbol"`
	Banner         string `json:"banner"`
	Heading        string `json:"heading"`
	Divider        string `json:"divider"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	// Structured output options
	IncludeMetadata bool `json:"include_metadata"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:          FormatConsole,
		CurrencySymbol:  DefaultCurrencySymbol,
		Banner:          DefaultBanner,
		Heading:         DefaultHeading,
		Divider:         DefaultDivider,
		CSVDelimiter:    ',',
		CSVHeaders:      true,
		IncludeMetadata: true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.Format == FormatCSV {
		switch c.CSVDelimiter {
		case 0, '\r', '\n', '"':
			return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
		}
	}

	return nil
}

// ReportGenerator generates sales reports in various formats
type ReportGenerator struct {
	config *ReportConfig
	logger logger.Logger
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
		logger: logger.WithComponent("report_generator"),
	}, nil
}

// GenerateReport renders report in the configured format and writes it to writer
func (rg *ReportGenerator) GenerateReport(report *analytics.Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("sales report cannot be nil")
	}
	if report.MonthlySales == nil {
		return fmt.Errorf("sales report has no monthly sales")
	}

	rg.logger.WithFields(logger.Fields{
		"format": rg.config.Format,
		"months": report.MonthlySales.Len(),
	}).Debug("Rendering report")

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatYAML:
		return rg.generateYAMLReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	case FormatXLSX:
		return rg.generateXLSXReport(report, writer)
	case FormatPDF:
		return rg.generatePDFReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport writes the plain text report
func (rg *ReportGenerator) generateConsoleReport(report *analytics.Report, writer io.Writer) error {
	ew := &errWriter{w: writer}
	symbol := rg.config.CurrencySymbol

	if rg.config.Banner != "" {
		ew.printf("%s\n", rg.config.Banner)
	}
	ew.printf("\nTotal Sales: %s\n\n", FormatCurrency(report.TotalSales, symbol))
	if rg.config.Heading != "" {
		ew.printf("%s\n", rg.config.Heading)
	}

	for _, month := range report.Months() {
		total, _ := report.MonthlySales.Get(month)
		popular, _ := report.PopularItems.Get(month)
		topRevenue, _ := report.TopRevenueItems.Get(month)

		ew.printf("Month: %s\n", month)
		ew.printf("Sales Total: %s\n", FormatCurrency(total, symbol))
		ew.printf("Most Popular Item: %s\n", popular)
		ew.printf("Top Revenue Item: %s\n", topRevenue)

		if stats, ok := report.OrderStats.Get(month); ok {
			ew.printf("Min Orders: %d\n", stats.Min)
			ew.printf("Max Orders: %d\n", stats.Max)
			ew.printf("Avg Orders: %s\n", formatAverage(stats.Average))
		}

		ew.printf("%s\n", rg.config.Divider)
	}

	return ew.err
}

// generateJSONReport writes the structured report as indented JSON
func (rg *ReportGenerator) generateJSONReport(report *analytics.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(BuildDocument(report, rg.config.IncludeMetadata))
}

// generateYAMLReport writes the structured report as YAML
func (rg *ReportGenerator) generateYAMLReport(report *analytics.Report, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(BuildDocument(report, rg.config.IncludeMetadata)); err != nil {
		return err
	}
	return encoder.Close()
}

// CSVHeaders are the column names of the csv report
var CSVHeaders = []string{
	"month",
	"sales_total",
	"popular_item",
	"top_revenue_item",
	"min_orders",
	"max_orders",
	"avg_orders",
}

// generateCSVReport writes one row per month
func (rg *ReportGenerator) generateCSVReport(report *analytics.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(CSVHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	doc := BuildDocument(report, false)
	for _, month := range doc.Months {
		row := []string{month.Month, month.SalesTotal, month.PopularItem, month.TopRevenueItem, "", "", ""}
		if month.OrderStats != nil {
			row[4] = strconv.Itoa(month.OrderStats.Min)
			row[5] = strconv.Itoa(month.OrderStats.Max)
			row[6] = month.OrderStats.Average
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", month.Month, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// errWriter keeps the first write error so that console output can be
// emitted line by line without checking every call
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
