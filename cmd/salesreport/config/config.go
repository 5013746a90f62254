package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sales-analytics-service/internal/parsers"
	"sales-analytics-service/internal/reporter"
	"sales-analytics-service/pkg/logger"
)

// DefaultInputPath is the sales file read when no input is configured
const DefaultInputPath = "DataFile/SalesData.txt"

// delimiterAliases maps readable names onto delimiter characters
var delimiterAliases = map[string]rune{
	"comma":     ',',
	"semicolon": ';',
	"tab":       '\t',
	`\t`:        '\t',
	"pipe":      '|',
}

// ParseDelimiter converts a single character or a named alias into a rune
func ParseDelimiter(value string) (rune, error) {
	if value == "" {
		return ',', nil
	}

	if r, ok := delimiterAliases[strings.ToLower(value)]; ok {
		return r, nil
	}

	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", value)
	}

	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}

// CreateSalesParserConfig creates the parser configuration for the sales file
func CreateSalesParserConfig(delimiter string, dateFormats []string, hasHeader bool) (*parsers.SalesParserConfig, error) {
	config := parsers.DefaultSalesParserConfig()

	r, err := ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	config.Delimiter = r
	config.HasHeader = hasHeader

	// user supplied layouts are tried before the built-in ones
	if formats := cleanFormats(dateFormats); len(formats) > 0 {
		config.DateFormats = append(formats, config.DateFormats...)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sales parser config: %w", err)
	}

	return config, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, currencySymbol string) (*reporter.ReportConfig, error) {
	outputFormat, err := reporter.ParseOutputFormat(format)
	if err != nil {
		return nil, err
	}

	config := reporter.DefaultReportConfig()
	config.Format = outputFormat
	if currencySymbol != "" {
		config.CurrencySymbol = currencySymbol
	}

	switch outputFormat {
	case reporter.FormatCSV:
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	case reporter.FormatJSON, reporter.FormatYAML:
		config.IncludeMetadata = true
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}

	return config, nil
}

// CreateLoggerConfig creates the logger configuration for CLI runs.
// Verbose forces the debug level.
func CreateLoggerConfig(level, format, file string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()

	if level != "" {
		config.Level = logger.Level(strings.ToLower(level))
	}
	if verbose {
		config.Level = logger.DebugLevel
	}
	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}
	if file != "" {
		config.Output = logger.FileOutput
		config.File = file
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func cleanFormats(formats []string) []string {
	cleaned := make([]string, 0, len(formats))
	for _, f := range formats {
		if f = strings.TrimSpace(f); f != "" {
			cleaned = append(cleaned, f)
		}
	}
	return cleaned
}
