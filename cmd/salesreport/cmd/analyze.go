package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sales-analytics-service/cmd/salesreport/config"
	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/metrics"
	"sales-analytics-service/internal/parsers"
	"sales-analytics-service/internal/reporter"
	"sales-analytics-service/pkg/errors"
	"sales-analytics-service/pkg/logger"
)

// analyzeOptions holds the resolved settings of one analyze run
type analyzeOptions struct {
	Input          string
	OutputFormat   string
	OutputFile     string
	CurrencySymbol string
	DateFormats    []string
	Delimiter      string
	HasHeader      bool
	MetricsFile    string
}

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Produce the monthly sales report",
	Long: `Analyze loads the sales file, skips lines that cannot be parsed, and
prints the sales report. A missing sales file produces an empty report.

The file has one header line followed by lines of the form:
  date,itemCode,unitPrice,quantity,totalPrice

Examples:
  # Read DataFile/SalesData.txt and print the console report
  salesreport analyze

  # Structured output
  salesreport analyze --input sales.txt --output-format yaml

  # Spreadsheet and PDF output require an output file
  salesreport analyze --output-format xlsx --output-file report.xlsx

  # Semicolon separated file with day-first dates
  salesreport analyze --input sales.txt --delimiter ";" --date-formats 02.01.2006

  # Write run metrics for the node exporter textfile collector
  salesreport analyze --metrics-file /var/lib/node_exporter/salesreport.prom`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringP("input", "i", config.DefaultInputPath, "path to the sales data file")
	analyzeCmd.Flags().String("delimiter", ",", "field delimiter: a single character or comma, semicolon, tab, pipe")
	analyzeCmd.Flags().StringSlice("date-formats", []string{}, "additional Go date layouts tried before the built-in ones")
	analyzeCmd.Flags().Bool("has-header", true, "the first line of the file is a header")

	// Output flags
	analyzeCmd.Flags().StringP("output-format", "f", string(reporter.FormatConsole), "output format: console, json, yaml, csv, xlsx, pdf")
	analyzeCmd.Flags().StringP("output-file", "o", "", "output file path (default: stdout)")
	analyzeCmd.Flags().String("currency-symbol", reporter.DefaultCurrencySymbol, "currency symbol used in text reports")
	analyzeCmd.Flags().String("metrics-file", "", "write run metrics to this file in prometheus textfile format")

	// Bind flags to viper
	for _, name := range []string{
		"input",
		"delimiter",
		"date-formats",
		"has-header",
		"output-format",
		"output-file",
		"currency-symbol",
		"metrics-file",
	} {
		viper.BindPFlag(name, analyzeCmd.Flags().Lookup(name))
	}
}

// loadAnalyzeOptions reads the analyze settings from viper so that config
// files and environment variables override flag defaults
func loadAnalyzeOptions() *analyzeOptions {
	return &analyzeOptions{
		Input:          viper.GetString("input"),
		OutputFormat:   viper.GetString("output-format"),
		OutputFile:     viper.GetString("output-file"),
		CurrencySymbol: viper.GetString("currency-symbol"),
		DateFormats:    viper.GetStringSlice("date-formats"),
		Delimiter:      viper.GetString("delimiter"),
		HasHeader:      viper.GetBool("has-header"),
		MetricsFile:    viper.GetString("metrics-file"),
	}
}

// validate checks the options. A missing input file is not an error.
func (o *analyzeOptions) validate() error {
	var errs []error

	if strings.TrimSpace(o.Input) == "" {
		errs = append(errs, fmt.Errorf("input path cannot be empty"))
	}

	format, err := reporter.ParseOutputFormat(o.OutputFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("%w. Valid formats: %s", err, formatList()))
	} else if format.IsBinary() && o.OutputFile == "" {
		errs = append(errs, fmt.Errorf("output format %s requires --output-file", format))
	}

	if _, err := config.ParseDelimiter(o.Delimiter); err != nil {
		errs = append(errs, err)
	}

	if err := validateParentDir(o.OutputFile, "output"); err != nil {
		errs = append(errs, err)
	}
	if err := validateParentDir(o.MetricsFile, "metrics"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}

	appErr := errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig, FormatValidationErrors(errs)).
		WithSuggestion("Use 'salesreport analyze --help' to see all available options")
	if len(errs) == 1 {
		appErr.Cause = errs[0]
	}
	return appErr
}

func validateParentDir(path, description string) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s directory does not exist: %s", description, dir)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s directory: %w", description, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s directory is not a directory: %s", description, dir)
	}
	return nil
}

func formatList() string {
	names := make([]string, 0, len(reporter.SupportedFormats))
	for _, f := range reporter.SupportedFormats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts := loadAnalyzeOptions()
	if err := opts.validate(); err != nil {
		return err
	}

	return executeAnalysis(cmd.Context(), opts, cmd.OutOrStdout())
}

// executeAnalysis loads, analyzes and reports. Only configuration and output
// failures end the run with an error.
func executeAnalysis(ctx context.Context, opts *analyzeOptions, stdout io.Writer) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	runMetrics := metrics.New()
	log := logger.WithComponent("cli")

	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFailure
		}
		runMetrics.ObserveDuration(time.Since(start))
		runMetrics.ObserveRun(status)
		writeMetrics(log, runMetrics, opts.MetricsFile)
	}()

	log.WithFields(logger.Fields{
		"input":         opts.Input,
		"output_format": opts.OutputFormat,
		"output_file":   opts.OutputFile,
	}).Debug("Starting sales analysis")

	parserConfig, err := config.CreateSalesParserConfig(opts.Delimiter, opts.DateFormats, opts.HasHeader)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "delimiter", opts.Delimiter, err)
	}

	reportConfig, err := config.CreateReportConfig(opts.OutputFormat, opts.CurrencySymbol)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", opts.OutputFormat, err)
	}

	parser, err := parsers.NewSalesParser(parserConfig)
	if err != nil {
		return err
	}

	result, err := parser.LoadFile(ctx, opts.Input)
	if err != nil {
		return err
	}
	runMetrics.ObserveLoad(result)

	report, err := analytics.NewEngine().Analyze(ctx, result.Records)
	if err != nil {
		return err
	}
	runMetrics.ObserveReport(report)

	generator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	if err := writeReport(generator, report, opts.OutputFile, reportConfig.Format, stdout); err != nil {
		return err
	}

	log.WithFields(logger.Fields{
		"run_id":        report.RunID,
		"records":       len(result.Records),
		"skipped_lines": len(result.Diagnostics),
		"months":        report.MonthlySales.Len(),
		"input_missing": result.Missing(),
		"total_sales":   report.TotalSales.StringFixed(2),
		"duration":      time.Since(start).String(),
	}).Info("Sales report completed")

	return nil
}

// writeReport sends the report to outputFile, or to stdout when it is empty
func writeReport(generator *reporter.SafeReportGenerator, report *analytics.Report, outputFile string, format reporter.OutputFormat, stdout io.Writer) error {
	if outputFile == "" {
		return generator.GenerateReportSafely(report, stdout)
	}

	output, err := os.Create(outputFile)
	if err != nil {
		return errors.ReportError(errors.CodeWriteFailed, string(format), err).
			WithContext("output_file", outputFile)
	}

	if err := generator.GenerateReportSafely(report, output); err != nil {
		output.Close()
		return err
	}

	if err := output.Close(); err != nil {
		return errors.ReportError(errors.CodeWriteFailed, string(format), err).
			WithContext("output_file", outputFile)
	}
	return nil
}

// writeMetrics writes the textfile when a path is configured; failures are logged
func writeMetrics(log logger.Logger, m *metrics.Metrics, path string) {
	if path == "" {
		return
	}

	if err := m.WriteTextfile(path); err != nil {
		log.WithError(err).WithField("metrics_file", path).Warn("Failed to write metrics file")
		return
	}
	log.WithField("metrics_file", path).Debug("Metrics written")
}
